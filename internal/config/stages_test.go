package config

import (
	"strings"
	"testing"
)

func TestDefaultStagesShape(t *testing.T) {
	stages := DefaultStages()
	if len(stages) != 6 {
		t.Fatalf("len(stages) = %d, want 6", len(stages))
	}

	wantNames := []string{
		"Input/Output Skeleton",
		"Execution Strategy Skeleton",
		"Input/Output Disambiguation",
		"Execution Strategy Disambiguation",
		"Execution Strategy Robustness",
		"Input/Output Robustness",
	}
	for i, s := range stages {
		if s.Name != wantNames[i] {
			t.Errorf("stage %d name = %q, want %q", i+1, s.Name, wantNames[i])
		}
		for _, kind := range PromptKinds {
			if s.prompt(kind) == "" {
				t.Errorf("stage %q has empty %s prompt", s.Name, kind)
			}
		}
	}
}

func TestDefaultPromptsCarryJSONContracts(t *testing.T) {
	stage := DefaultStages()[0]

	if !strings.Contains(stage.Diagnostic, `"questions"`) {
		t.Error("diagnostic prompt does not name the questions field")
	}
	if !strings.Contains(stage.QuestioningFollowup, `"need_followup"`) {
		t.Error("followup prompt does not name the need_followup field")
	}
	if !strings.Contains(stage.QuestioningCompress, `"compressed"`) {
		t.Error("compress prompt does not name the compressed field")
	}
	if !strings.Contains(stage.Integration, `"current_prompt"`) {
		t.Error("integration prompt does not name the current_prompt field")
	}
}

func TestStagePromptAccessors(t *testing.T) {
	var s StageDefinition
	for _, kind := range PromptKinds {
		s.setPrompt(kind, "body:"+string(kind))
	}
	for _, kind := range PromptKinds {
		if got := s.prompt(kind); got != "body:"+string(kind) {
			t.Errorf("prompt(%s) = %q", kind, got)
		}
	}
	if got := s.prompt(PromptKind("bogus")); got != "" {
		t.Errorf("unknown kind returned %q, want empty", got)
	}
}
