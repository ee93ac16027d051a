package agent

import (
	"context"
	"encoding/json"
	"strings"

	"promptforge/internal/gateway"
	"promptforge/internal/logging"
)

// Diagnostic examines the current prompt through one stage's lens and
// produces the clarifying questions for that stage. An empty question list
// is a valid result: the stage has nothing to ask.
type Diagnostic struct {
	client gateway.Client
}

// NewDiagnostic creates a diagnostic agent on the given gateway client.
func NewDiagnostic(client gateway.Client) *Diagnostic {
	return &Diagnostic{client: client}
}

var questionsSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"questions": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required":             []string{"questions"},
	"additionalProperties": false,
}

// Run sends the current prompt to the model under the stage's diagnostic
// system prompt and returns the question list, blanks dropped.
func (d *Diagnostic) Run(ctx context.Context, stage StageRef, systemPrompt, currentPrompt string) ([]string, error) {
	logging.Diagnostic("stage %d %q: diagnosing prompt (%d chars)", stage.Idx, stage.Name, len(currentPrompt))

	userPrompt := "Here is the prompt to examine:\n\n" + currentPrompt
	content, err := d.client.Invoke(ctx, userPrompt, systemPrompt, gateway.Options{
		ResponseFormat: gateway.StrictSchema("questions", questionsSchema),
	})
	if err != nil {
		return nil, err
	}

	var reply struct {
		Questions []string `json:"questions"`
	}
	if !unmarshalReply(content, &reply) {
		logging.DiagnosticError("stage %d: unparseable reply: %.200s", stage.Idx, content)
		return nil, protocolErr("diagnostic", stage, "reply is not a JSON object with a questions field")
	}
	if reply.Questions == nil {
		// Distinguish a deliberately empty list from a missing or null
		// field; only [] counts as "nothing to ask".
		var probe map[string]json.RawMessage
		if !unmarshalReply(content, &probe) {
			return nil, protocolErr("diagnostic", stage, "reply is not a JSON object")
		}
		raw, ok := probe["questions"]
		if !ok {
			return nil, protocolErr("diagnostic", stage, "reply missing questions field")
		}
		if strings.TrimSpace(string(raw)) == "null" {
			return nil, protocolErr("diagnostic", stage, "questions field is null, not a list")
		}
	}

	questions := make([]string, 0, len(reply.Questions))
	for _, q := range reply.Questions {
		q = strings.TrimSpace(sanitizeText(q))
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}
	logging.Diagnostic("stage %d: %d question(s)", stage.Idx, len(questions))
	return questions, nil
}
