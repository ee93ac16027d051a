// Package pipeline drives the staged refinement run: an explicit state
// machine that walks every configured stage through diagnose, dialogue, and
// integrate, carrying the evolving prompt between stages.
package pipeline

// Phase names one node of the run state machine.
type Phase string

const (
	PhaseInitStage    Phase = "init_stage"
	PhaseDiagnose     Phase = "diagnose"
	PhaseQuestion     Phase = "question"
	PhaseIntegrate    Phase = "integrate"
	PhaseAdvanceStage Phase = "advance_stage"
	PhaseTerminal     Phase = "terminal"
)

// State is the complete mutable state of one run. StageIdx is 1-based and
// only ever grows; the run is finished once it exceeds the stage count.
// Answers is append-only within a stage and reset when a new stage begins.
type State struct {
	RunID         string
	CurrentPrompt string
	StageIdx      int
	Questions     []string
	QuestionIdx   int // next question to ask, 0-based
	Answers       []string
	Transitions   int
}

// snapshot returns a copy safe to hand out; slices are cloned so callers
// cannot reach back into the machine's state.
func (s State) snapshot() State {
	out := s
	out.Questions = append([]string(nil), s.Questions...)
	out.Answers = append([]string(nil), s.Answers...)
	return out
}
