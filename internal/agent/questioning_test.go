package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRunQuestionSingleTurn(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"need_followup": false}`,
		`{"compressed": "Q: What format? A: CSV with headers."}`,
	}}
	ui := &mockConsole{inputs: []string{"CSV with headers"}}

	got, err := NewQuestioner(client, 2).RunQuestion(context.Background(), testStage(),
		"followup-sys", "compress-sys", "What format?", ui)
	if err != nil {
		t.Fatalf("RunQuestion: %v", err)
	}
	if got != "Q: What format? A: CSV with headers." {
		t.Errorf("compressed = %q", got)
	}

	// One decision call, one compression call. Compression always runs,
	// single-turn conversations included.
	if len(client.calls) != 2 {
		t.Fatalf("got %d model calls, want 2", len(client.calls))
	}
	if client.calls[0].systemPrompt != "followup-sys" {
		t.Errorf("first call system prompt = %q", client.calls[0].systemPrompt)
	}
	if client.calls[1].systemPrompt != "compress-sys" {
		t.Errorf("second call system prompt = %q", client.calls[1].systemPrompt)
	}
	if ui.clears != 1 {
		t.Errorf("conversation cleared %d times, want 1", ui.clears)
	}
}

func TestRunQuestionFollowupWithOptionExpansion(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"need_followup": true, "followup_question": "Which delimiter?", "options": ["A) comma", "B) tab"]}`,
		`{"need_followup": false}`,
		`{"compressed": "Q: Which delimiter? A: tab."}`,
	}}
	ui := &mockConsole{inputs: []string{"whatever works", "B"}}

	_, err := NewQuestioner(client, 2).RunQuestion(context.Background(), testStage(),
		"f", "c", "What format?", ui)
	if err != nil {
		t.Fatalf("RunQuestion: %v", err)
	}

	// The follow-up question reached the console with its options.
	if len(ui.prompts) != 2 || ui.prompts[1] != "Which delimiter?" {
		t.Fatalf("prompts = %v", ui.prompts)
	}
	if len(ui.optionSets[1]) != 2 {
		t.Errorf("options = %v", ui.optionSets[1])
	}

	// The second decision and the compression both see the expanded answer,
	// not the bare letter.
	for _, i := range []int{1, 2} {
		if !strings.Contains(client.calls[i].userPrompt, "B (tab)") {
			t.Errorf("call %d user prompt missing expanded answer: %q", i, client.calls[i].userPrompt)
		}
	}
}

func TestRunQuestionFollowupCeiling(t *testing.T) {
	// max_followup_count = 1: after one follow-up the conversation ends
	// without another decision call.
	client := &mockClient{replies: []string{
		`{"need_followup": true, "followup_question": "And the encoding?"}`,
		`{"compressed": "Q: format A: utf-8"}`,
	}}
	ui := &mockConsole{inputs: []string{"CSV", "utf-8"}}

	_, err := NewQuestioner(client, 1).RunQuestion(context.Background(), testStage(),
		"f", "c", "What format?", ui)
	if err != nil {
		t.Fatalf("RunQuestion: %v", err)
	}
	if len(client.calls) != 2 {
		t.Errorf("got %d model calls, want 2 (decision + compression only)", len(client.calls))
	}
	if ui.next != 2 {
		t.Errorf("consumed %d inputs, want 2", ui.next)
	}
}

func TestRunQuestionZeroFollowupBudget(t *testing.T) {
	// Budget 0 skips the decision entirely: ask once, compress.
	client := &mockClient{replies: []string{
		`{"compressed": "Q: format A: CSV"}`,
	}}
	ui := &mockConsole{inputs: []string{"CSV"}}

	got, err := NewQuestioner(client, 0).RunQuestion(context.Background(), testStage(),
		"f", "c", "What format?", ui)
	if err != nil {
		t.Fatalf("RunQuestion: %v", err)
	}
	if got != "Q: format A: CSV" {
		t.Errorf("compressed = %q", got)
	}
	if len(client.calls) != 1 {
		t.Errorf("got %d model calls, want 1", len(client.calls))
	}
}

func TestRunQuestionEmptyFollowupQuestion(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"need_followup": true, "followup_question": "   "}`,
	}}
	ui := &mockConsole{inputs: []string{"CSV"}}

	_, err := NewQuestioner(client, 2).RunQuestion(context.Background(), testStage(),
		"f", "c", "What format?", ui)
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
	if perr.Agent != "questioning" {
		t.Errorf("agent = %q", perr.Agent)
	}
}

func TestRunQuestionDecisionMissingBoolean(t *testing.T) {
	// A decision reply without need_followup must not be read as "no".
	client := &mockClient{replies: []string{
		`{"followup_question": "anything"}`,
	}}
	ui := &mockConsole{inputs: []string{"CSV"}}

	_, err := NewQuestioner(client, 2).RunQuestion(context.Background(), testStage(),
		"f", "c", "What format?", ui)
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
	if perr.Agent != "questioning" {
		t.Errorf("agent = %q", perr.Agent)
	}
	if len(client.calls) != 1 {
		t.Errorf("got %d model calls after abort, want 1 (no compression)", len(client.calls))
	}
}

func TestRunQuestionEmptyCompression(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"need_followup": false}`,
		`{"compressed": ""}`,
	}}
	ui := &mockConsole{inputs: []string{"CSV"}}

	_, err := NewQuestioner(client, 2).RunQuestion(context.Background(), testStage(),
		"f", "c", "What format?", ui)
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
}

func TestRunQuestionDecisionSeesFullHistory(t *testing.T) {
	client := &mockClient{replies: []string{
		`{"need_followup": true, "followup_question": "More detail?"}`,
		`{"need_followup": false}`,
		`{"compressed": "Q: x A: y"}`,
	}}
	ui := &mockConsole{inputs: []string{"first answer", "second answer"}}

	_, err := NewQuestioner(client, 3).RunQuestion(context.Background(), testStage(),
		"f", "c", "Original question?", ui)
	if err != nil {
		t.Fatalf("RunQuestion: %v", err)
	}

	second := client.calls[1].userPrompt
	for _, want := range []string{"Original question?", "first answer", "More detail?", "second answer"} {
		if !strings.Contains(second, want) {
			t.Errorf("second decision prompt missing %q", want)
		}
	}
}
