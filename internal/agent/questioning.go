package agent

import (
	"context"
	"encoding/json"
	"strings"

	"promptforge/internal/console"
	"promptforge/internal/gateway"
	"promptforge/internal/logging"
)

// Turn is one question/answer exchange inside a single clarifying question's
// conversation. Options holds the enumerated choices offered with the
// question, when there were any.
type Turn struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
}

// FollowupDecision is the follow-up model's verdict on the conversation so
// far.
type FollowupDecision struct {
	NeedFollowup     bool     `json:"need_followup"`
	FollowupQuestion string   `json:"followup_question"`
	Options          []string `json:"options,omitempty"`
}

// Questioner runs the bounded conversation for one clarifying question:
// ask, decide whether to follow up, repeat up to maxFollowups times, then
// compress the whole exchange into a single Q/A string.
type Questioner struct {
	client       gateway.Client
	maxFollowups int
}

// NewQuestioner creates a questioning agent. maxFollowups of 0 disables
// follow-ups entirely; every question then gets exactly one turn.
func NewQuestioner(client gateway.Client, maxFollowups int) *Questioner {
	return &Questioner{client: client, maxFollowups: maxFollowups}
}

var followupSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"need_followup":     map[string]interface{}{"type": "boolean"},
		"followup_question": map[string]interface{}{"type": "string"},
		"options": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required": []string{"need_followup"},
}

var compressSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"compressed": map[string]interface{}{"type": "string"},
	},
	"required":             []string{"compressed"},
	"additionalProperties": false,
}

// RunQuestion drives the conversation for one clarifying question and
// returns its compressed "Q: ... A: ..." summary. Compression runs even for
// a single-turn exchange, so every entry in the answer list has the same
// shape regardless of how the conversation went.
func (q *Questioner) RunQuestion(ctx context.Context, stage StageRef, followupPrompt, compressPrompt, question string, ui console.UserInterface) (string, error) {
	logging.Questioning("stage %d %q: asking %q", stage.Idx, stage.Name, question)
	ui.ClearConversation()

	answer, err := ui.GetUserInput(question, nil)
	if err != nil {
		return "", err
	}
	history := []Turn{{Question: question, Answer: sanitizeText(answer)}}

	for followups := 0; ; followups++ {
		// Hard ceiling: once the budget is spent the conversation ends
		// without consulting the model.
		if followups >= q.maxFollowups {
			logging.Questioning("stage %d: follow-up budget exhausted (%d)", stage.Idx, q.maxFollowups)
			break
		}

		ui.ShowWaiting("considering your answer")
		decision, err := q.decideFollowup(ctx, stage, followupPrompt, question, history)
		if err != nil {
			return "", err
		}
		if !decision.NeedFollowup {
			break
		}
		fq := strings.TrimSpace(sanitizeText(decision.FollowupQuestion))
		if fq == "" {
			return "", protocolErr("questioning", stage, "need_followup is true but followup_question is empty")
		}

		answer, err := ui.GetUserInput(fq, decision.Options)
		if err != nil {
			return "", err
		}
		answer = expandOptionLetters(sanitizeText(answer), decision.Options)
		history = append(history, Turn{Question: fq, Options: decision.Options, Answer: answer})
	}

	ui.ShowWaiting("summarizing the exchange")
	return q.compress(ctx, stage, compressPrompt, question, history)
}

// decideFollowup sends the original question and the entire conversation so
// far, so the model never contradicts an earlier turn it did not see.
func (q *Questioner) decideFollowup(ctx context.Context, stage StageRef, systemPrompt, question string, history []Turn) (*FollowupDecision, error) {
	userPrompt, err := transcriptPrompt(question, history)
	if err != nil {
		return nil, err
	}

	content, err := q.client.Invoke(ctx, userPrompt, systemPrompt, gateway.Options{
		ResponseFormat: gateway.StrictSchema("followup_decision", followupSchema),
	})
	if err != nil {
		return nil, err
	}

	var decision FollowupDecision
	if !unmarshalReply(content, &decision) {
		logging.QuestioningError("stage %d: unparseable follow-up decision: %.200s", stage.Idx, content)
		return nil, protocolErr("questioning", stage, "follow-up decision is not a JSON object with need_followup")
	}
	// The boolean must actually be present; a reply that omits it would
	// otherwise decode as need_followup=false and end the conversation.
	var probe map[string]json.RawMessage
	if !unmarshalReply(content, &probe) {
		return nil, protocolErr("questioning", stage, "follow-up decision is not a JSON object")
	}
	if _, ok := probe["need_followup"]; !ok {
		logging.QuestioningError("stage %d: decision missing need_followup: %.200s", stage.Idx, content)
		return nil, protocolErr("questioning", stage, "follow-up decision missing need_followup field")
	}
	logging.QuestioningDebug("stage %d: need_followup=%v", stage.Idx, decision.NeedFollowup)
	return &decision, nil
}

// compress turns the full conversation into one self-contained Q/A string.
func (q *Questioner) compress(ctx context.Context, stage StageRef, systemPrompt, question string, history []Turn) (string, error) {
	userPrompt, err := transcriptPrompt(question, history)
	if err != nil {
		return "", err
	}

	content, err := q.client.Invoke(ctx, userPrompt, systemPrompt, gateway.Options{
		ResponseFormat: gateway.StrictSchema("compressed", compressSchema),
	})
	if err != nil {
		return "", err
	}

	var reply struct {
		Compressed string `json:"compressed"`
	}
	if !unmarshalReply(content, &reply) {
		logging.QuestioningError("stage %d: unparseable compression: %.200s", stage.Idx, content)
		return "", protocolErr("questioning", stage, "compression reply is not a JSON object with compressed")
	}
	compressed := strings.TrimSpace(sanitizeText(reply.Compressed))
	if compressed == "" {
		return "", protocolErr("questioning", stage, "compression produced an empty summary")
	}
	logging.Questioning("stage %d: compressed %d turn(s) into %d chars", stage.Idx, len(history), len(compressed))
	return compressed, nil
}

// transcriptPrompt renders the question and its conversation as the user
// message for the follow-up and compression calls.
func transcriptPrompt(question string, history []Turn) (string, error) {
	blob, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return "", err
	}
	return "Original question:\n" + question + "\n\nConversation so far:\n" + string(blob), nil
}
