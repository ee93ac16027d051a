package agent

import (
	"context"
	"encoding/json"
	"strings"

	"promptforge/internal/gateway"
	"promptforge/internal/logging"
)

// Integrator folds a stage's collected answers back into the prompt. It is
// always invoked at the end of a stage, even when the stage produced no
// answers: the integration prompt may still reword the prompt for its
// dimension.
type Integrator struct {
	client gateway.Client
}

// NewIntegrator creates an integration agent on the given gateway client.
func NewIntegrator(client gateway.Client) *Integrator {
	return &Integrator{client: client}
}

var promptSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"current_prompt": map[string]interface{}{"type": "string"},
	},
	"required":             []string{"current_prompt"},
	"additionalProperties": false,
}

// qaPair is the normalized form an answer takes in the integration request.
type qaPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// normalizeAnswer splits a compressed "Q: ... A: ..." string into its parts.
// Text without both markers in order becomes a bare answer with an empty
// question; integration still sees the content either way.
func normalizeAnswer(s string) qaPair {
	qi := strings.Index(s, "Q:")
	ai := strings.Index(s, "A:")
	if qi >= 0 && ai > qi {
		return qaPair{
			Question: strings.TrimSpace(s[qi+2 : ai]),
			Answer:   strings.TrimSpace(s[ai+2:]),
		}
	}
	return qaPair{Answer: strings.TrimSpace(s)}
}

// Run rewrites currentPrompt under the stage's integration system prompt
// using the stage's answer list. The caller's slice is not modified. An
// empty rewritten prompt is a protocol violation: the pipeline would
// otherwise carry a blank prompt into every remaining stage.
func (ig *Integrator) Run(ctx context.Context, stage StageRef, systemPrompt, currentPrompt string, answers []string) (string, error) {
	logging.Integration("stage %d %q: integrating %d answer(s)", stage.Idx, stage.Name, len(answers))

	pairs := make([]qaPair, 0, len(answers))
	for _, a := range answers {
		pairs = append(pairs, normalizeAnswer(a))
	}
	blob, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return "", err
	}

	userPrompt := "Current prompt:\n\n" + currentPrompt +
		"\n\nAnswers collected from the user:\n" + string(blob)

	content, err := ig.client.Invoke(ctx, userPrompt, systemPrompt, gateway.Options{
		ResponseFormat: gateway.StrictSchema("current_prompt", promptSchema),
	})
	if err != nil {
		return "", err
	}

	// Accept both field spellings; older prompt templates used
	// improved_prompt and models trained on them still emit it.
	var reply struct {
		CurrentPrompt  string `json:"current_prompt"`
		ImprovedPrompt string `json:"improved_prompt"`
	}
	if !unmarshalReply(content, &reply) {
		logging.IntegrationError("stage %d: unparseable reply: %.200s", stage.Idx, content)
		return "", protocolErr("integration", stage, "reply is not a JSON object with current_prompt")
	}
	result := reply.CurrentPrompt
	if result == "" {
		result = reply.ImprovedPrompt
	}
	result = strings.TrimSpace(sanitizeText(result))
	if result == "" {
		return "", protocolErr("integration", stage, "rewritten prompt is empty")
	}
	logging.Integration("stage %d: prompt is now %d chars", stage.Idx, len(result))
	return result, nil
}
