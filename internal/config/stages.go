package config

import "fmt"

// PromptKind names one of the four prompt templates every stage carries.
type PromptKind string

const (
	PromptDiagnostic          PromptKind = "diagnostic"
	PromptQuestioningFollowup PromptKind = "questioning_followup"
	PromptQuestioningCompress PromptKind = "questioning_compress"
	PromptIntegration         PromptKind = "integration"
)

// PromptKinds lists the required prompt types in a stable order.
var PromptKinds = []PromptKind{
	PromptDiagnostic,
	PromptQuestioningFollowup,
	PromptQuestioningCompress,
	PromptIntegration,
}

// StageDefinition is one stage of the pipeline with its prompts resolved
// to content. Read-only at runtime.
type StageDefinition struct {
	Name                string
	Diagnostic          string
	QuestioningFollowup string
	QuestioningCompress string
	Integration         string
}

func (s *StageDefinition) prompt(kind PromptKind) string {
	switch kind {
	case PromptDiagnostic:
		return s.Diagnostic
	case PromptQuestioningFollowup:
		return s.QuestioningFollowup
	case PromptQuestioningCompress:
		return s.QuestioningCompress
	case PromptIntegration:
		return s.Integration
	default:
		return ""
	}
}

func (s *StageDefinition) setPrompt(kind PromptKind, content string) {
	switch kind {
	case PromptDiagnostic:
		s.Diagnostic = content
	case PromptQuestioningFollowup:
		s.QuestioningFollowup = content
	case PromptQuestioningCompress:
		s.QuestioningCompress = content
	case PromptIntegration:
		s.Integration = content
	}
}

// stageFocus describes what one built-in stage interrogates. The six stages
// sweep the prompt twice: first a coarse skeleton pass over inputs/outputs
// and execution strategy, then disambiguation, then robustness.
type stageFocus struct {
	name  string
	focus string
}

var builtinStages = []stageFocus{
	{
		name:  "Input/Output Skeleton",
		focus: "whether the prompt states what inputs the task receives and what outputs it must produce, at the level of presence or absence",
	},
	{
		name:  "Execution Strategy Skeleton",
		focus: "whether the prompt states how the task should be carried out: method, steps, tone, constraints, at the level of presence or absence",
	},
	{
		name:  "Input/Output Disambiguation",
		focus: "input and output descriptions that are present but ambiguous: vague formats, undefined terms, unstated units or ranges",
	},
	{
		name:  "Execution Strategy Disambiguation",
		focus: "execution instructions that are present but ambiguous: subjective qualifiers, conflicting constraints, undefined processes",
	},
	{
		name:  "Execution Strategy Robustness",
		focus: "how the execution strategy should behave on edge cases: unexpected inputs, failure modes, boundary conditions",
	},
	{
		name:  "Input/Output Robustness",
		focus: "how inputs and outputs should behave on edge cases: missing fields, oversized content, malformed data",
	},
}

// DefaultStages returns the six built-in stages with generated prompts.
// Projects that care about prompt wording run `promptforge init` and edit
// the scaffolded template files instead.
func DefaultStages() []StageDefinition {
	stages := make([]StageDefinition, 0, len(builtinStages))
	for _, sf := range builtinStages {
		stages = append(stages, StageDefinition{
			Name:                sf.name,
			Diagnostic:          defaultDiagnosticPrompt(sf),
			QuestioningFollowup: defaultFollowupPrompt(sf),
			QuestioningCompress: defaultCompressPrompt(sf),
			Integration:         defaultIntegrationPrompt(sf),
		})
	}
	return stages
}

func defaultDiagnosticPrompt(sf stageFocus) string {
	return fmt.Sprintf(`You are a prompt engineering assistant running the %q diagnostic stage.

Examine the user's prompt for %s.

Produce clarifying questions for the user, each answerable in one or two
sentences. Ask only about genuine gaps; if the prompt already covers this
dimension, ask nothing.

Respond with a JSON object: {"questions": ["...", "..."]}.
An empty array means this stage needs no clarification.`, sf.name, sf.focus)
}

func defaultFollowupPrompt(sf stageFocus) string {
	return fmt.Sprintf(`You are running the %q stage of a prompt refinement interview.

You will receive the original clarifying question and the full conversation
so far. Decide whether the latest answer, taken together with the earlier
turns, is specific enough to act on. Stay consistent with everything the
user has already said.

If the answer is sufficient, respond: {"need_followup": false}.
If not, respond: {"need_followup": true, "followup_question": "...",
"options": ["A) ...", "B) ..."]}. The options field is optional; include it
only when a short fixed list of choices would help the user answer.`, sf.name)
}

func defaultCompressPrompt(sf stageFocus) string {
	return fmt.Sprintf(`You are summarizing one question of the %q refinement stage.

You will receive the original clarifying question and every turn of the
conversation it produced, including follow-ups. Compress the exchange into a
single self-contained question/answer pair that preserves every concrete
detail the user provided.

Respond with a JSON object: {"compressed": "Q: ... A: ..."}.`, sf.name)
}

func defaultIntegrationPrompt(sf stageFocus) string {
	return fmt.Sprintf(`You are rewriting a prompt after the %q refinement stage.

You will receive the current prompt and a JSON list of question/answer pairs
collected from the user. Rewrite the prompt so the answers are reflected in
its wording, addressing %s. Keep everything that was already good. Do not
copy answer text or Q/A labels verbatim into the prompt.

Respond with a JSON object: {"current_prompt": "..."}.`, sf.name, sf.focus)
}
