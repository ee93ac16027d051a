package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LLM.Provider != "local" {
		t.Errorf("default provider = %q, want local", cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("default base URL = %q", cfg.LLM.BaseURL)
	}
	if cfg.Pipeline.MaxFollowupCount != 2 {
		t.Errorf("default max_followup_count = %d, want 2", cfg.Pipeline.MaxFollowupCount)
	}
	if cfg.Pipeline.MaxTransitions != 200 {
		t.Errorf("default max_transitions = %d, want 200", cfg.Pipeline.MaxTransitions)
	}
	if cfg.StageCount() != 6 {
		t.Fatalf("default stage count = %d, want 6", cfg.StageCount())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadAppliesDefaultsUnderPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
name: myproject
pipeline:
  max_followup_count: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "myproject" {
		t.Errorf("name = %q, want myproject", cfg.Name)
	}
	if cfg.Pipeline.MaxFollowupCount != 5 {
		t.Errorf("max_followup_count = %d, want 5", cfg.Pipeline.MaxFollowupCount)
	}
	// Untouched keys keep defaults.
	if cfg.Pipeline.MaxTransitions != 200 {
		t.Errorf("max_transitions = %d, want default 200", cfg.Pipeline.MaxTransitions)
	}
	if cfg.StageCount() != 6 {
		t.Errorf("stage count = %d, want built-in 6", cfg.StageCount())
	}
}

func TestLoadResolvesStagePromptFiles(t *testing.T) {
	dir := t.TempDir()
	promptDir := filepath.Join(dir, "prompts")
	if err := os.MkdirAll(promptDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, kind := range PromptKinds {
		p := filepath.Join(promptDir, string(kind)+".md")
		if err := os.WriteFile(p, []byte("prompt body for "+string(kind)), 0644); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  stages:
    - name: Solo Stage
      prompts:
        diagnostic: prompts/diagnostic.md
        questioning_followup: prompts/questioning_followup.md
        questioning_compress: prompts/questioning_compress.md
        integration: prompts/integration.md
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StageCount() != 1 {
		t.Fatalf("stage count = %d, want 1", cfg.StageCount())
	}
	got, err := cfg.StagePrompt(1, PromptDiagnostic)
	if err != nil {
		t.Fatalf("StagePrompt: %v", err)
	}
	if got != "prompt body for diagnostic" {
		t.Errorf("resolved prompt = %q", got)
	}
}

func TestLoadMissingPromptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  stages:
    - name: Broken Stage
      prompts:
        diagnostic: does/not/exist.md
        questioning_followup: does/not/exist.md
        questioning_compress: does/not/exist.md
        integration: does/not/exist.md
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for missing prompt file")
	}
	if !strings.Contains(err.Error(), "prompt file not found") {
		t.Errorf("error = %v, want prompt file not found", err)
	}
	if !strings.Contains(err.Error(), "Broken Stage") {
		t.Errorf("error should name the stage: %v", err)
	}
}

func TestLoadMissingPromptKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  stages:
    - name: Partial Stage
      prompts:
        diagnostic: prompts/d.md
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for stage missing prompt keys")
	}
}

func TestLoadOrDefaultWithoutFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.StageCount() != 6 {
		t.Errorf("stage count = %d, want 6", cfg.StageCount())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://model-host:8000/v1")
	t.Setenv("LLM_MODEL", "qwen3:30b")

	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.LLM.BaseURL != "http://model-host:8000/v1" {
		t.Errorf("base URL = %q, want env override", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "qwen3:30b" {
		t.Errorf("model = %q, want env override", cfg.LLM.Model)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "negative followup count",
			mutate: func(c *Config) { c.Pipeline.MaxFollowupCount = -1 },
			want:   "max_followup_count",
		},
		{
			name:   "zero transitions",
			mutate: func(c *Config) { c.Pipeline.MaxTransitions = 0 },
			want:   "max_transitions",
		},
		{
			name:   "no stages",
			mutate: func(c *Config) { c.SetStages(nil) },
			want:   "no stages",
		},
		{
			name: "duplicate stage names",
			mutate: func(c *Config) {
				s := DefaultStages()
				s[1].Name = s[0].Name
				c.SetStages(s)
			},
			want: "duplicate stage name",
		},
		{
			name: "missing prompt",
			mutate: func(c *Config) {
				s := DefaultStages()
				s[2].Integration = ""
				c.SetStages(s)
			},
			want: "missing integration prompt",
		},
		{
			name:   "bad timeout",
			mutate: func(c *Config) { c.LLM.Timeout = "ten minutes" },
			want:   "llm.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestStagePromptRangeChecks(t *testing.T) {
	cfg := DefaultConfig()

	if _, err := cfg.StagePrompt(0, PromptDiagnostic); err == nil {
		t.Error("stage_idx 0 should be out of range")
	}
	if _, err := cfg.StagePrompt(7, PromptDiagnostic); err == nil {
		t.Error("stage_idx 7 should be out of range for 6 stages")
	}
	if _, err := cfg.StageName(7); err == nil {
		t.Error("StageName(7) should be out of range")
	}

	for idx := 1; idx <= cfg.StageCount(); idx++ {
		for _, kind := range PromptKinds {
			if _, err := cfg.StagePrompt(idx, kind); err != nil {
				t.Errorf("StagePrompt(%d, %s): %v", idx, kind, err)
			}
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Name = "saved"
	cfg.LLM.Model = "gpt-4o-mini"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	if loaded.Name != "saved" {
		t.Errorf("name = %q, want saved", loaded.Name)
	}
	if loaded.LLM.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", loaded.LLM.Model)
	}
}
