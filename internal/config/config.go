// Package config loads and validates promptforge configuration.
// Configuration lives in a single YAML file; stage prompt templates are
// referenced by path and resolved to their contents at load time, so the
// rest of the program never touches the filesystem for prompts. Any missing
// stage or prompt key is a startup error: the pipeline refuses to begin a
// run it cannot finish.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all promptforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM gateway configuration
	LLM LLMConfig `yaml:"llm"`

	// Pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// configDir is the directory the config file was loaded from.
	// Prompt paths resolve relative to it.
	configDir string
}

// LLMConfig configures the LLM gateway.
type LLMConfig struct {
	Provider string `yaml:"provider"` // local, openai, anthropic
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// PipelineConfig configures the refinement pipeline.
type PipelineConfig struct {
	// MaxFollowupCount bounds follow-up turns per question.
	MaxFollowupCount int `yaml:"max_followup_count"`

	// MaxTransitions bounds total state machine transitions per run.
	MaxTransitions int `yaml:"max_transitions"`

	// StageFiles optionally overrides the built-in six stages. Each entry
	// names a stage and four prompt template files.
	StageFiles []StageFileSpec `yaml:"stages,omitempty"`

	// stages holds the resolved stage definitions after Load.
	stages []StageDefinition
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories,omitempty"`
	Dir        string          `yaml:"dir,omitempty"`
}

// StageFileSpec is the on-disk form of a stage: prompt template paths,
// relative to the config file's directory.
type StageFileSpec struct {
	Name    string            `yaml:"name"`
	Prompts map[string]string `yaml:"prompts"`
}

// DefaultConfig returns the default configuration: six built-in stages,
// two follow-ups per question, a local OpenAI-compatible model server.
func DefaultConfig() *Config {
	return &Config{
		Name:    "promptforge",
		Version: "1",
		LLM: LLMConfig{
			Provider: "local",
			BaseURL:  "http://localhost:11434/v1",
			Timeout:  "10m",
		},
		Pipeline: PipelineConfig{
			MaxFollowupCount: 2,
			MaxTransitions:   200,
			stages:           DefaultStages(),
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load reads a config file, resolves stage prompt files, applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.configDir = filepath.Dir(path)

	if err := cfg.resolveStages(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path if it exists, otherwise returns the validated
// default configuration. Lets the tool run without any config directory.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config (without resolved prompt contents) to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variables over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
}

// resolveStages reads the stage prompt files named by StageFiles. When no
// stages are configured, the built-in defaults are kept.
func (c *Config) resolveStages() error {
	if len(c.Pipeline.StageFiles) == 0 {
		c.Pipeline.stages = DefaultStages()
		return nil
	}

	stages := make([]StageDefinition, 0, len(c.Pipeline.StageFiles))
	for _, spec := range c.Pipeline.StageFiles {
		if spec.Name == "" {
			return fmt.Errorf("config: stage with empty name")
		}
		def := StageDefinition{Name: spec.Name}
		for _, kind := range PromptKinds {
			rel, ok := spec.Prompts[string(kind)]
			if !ok {
				return fmt.Errorf("config: stage %q missing %s prompt", spec.Name, kind)
			}
			full := rel
			if !filepath.IsAbs(full) {
				full = filepath.Join(c.configDir, rel)
			}
			content, err := os.ReadFile(full)
			if err != nil {
				return fmt.Errorf("config: prompt file not found: %s (stage: %s, type: %s): %w",
					full, spec.Name, kind, err)
			}
			def.setPrompt(kind, string(content))
		}
		stages = append(stages, def)
	}
	c.Pipeline.stages = stages
	return nil
}

// Validate checks the loaded configuration. It is called by Load, but
// exported so hand-built configs (tests, init) can be checked too.
func (c *Config) Validate() error {
	if c.Pipeline.MaxFollowupCount < 0 {
		return fmt.Errorf("config: max_followup_count must be >= 0")
	}
	if c.Pipeline.MaxTransitions <= 0 {
		return fmt.Errorf("config: max_transitions must be > 0")
	}
	if len(c.Pipeline.stages) == 0 {
		return fmt.Errorf("config: no stages configured")
	}
	seen := make(map[string]bool, len(c.Pipeline.stages))
	for i, s := range c.Pipeline.stages {
		if s.Name == "" {
			return fmt.Errorf("config: stage %d has empty name", i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("config: duplicate stage name %q", s.Name)
		}
		seen[s.Name] = true
		for _, kind := range PromptKinds {
			if s.prompt(kind) == "" {
				return fmt.Errorf("config: stage %q missing %s prompt", s.Name, kind)
			}
		}
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("config: invalid llm.timeout %q: %w", c.LLM.Timeout, err)
		}
	}
	return nil
}

// Stages returns the resolved stage definitions, in pipeline order.
func (c *Config) Stages() []StageDefinition {
	return c.Pipeline.stages
}

// SetStages replaces the resolved stages. Used by tests and by init
// scaffolding; Validate should be called afterwards.
func (c *Config) SetStages(stages []StageDefinition) {
	c.Pipeline.stages = stages
}

// StageCount returns the number of configured stages.
func (c *Config) StageCount() int {
	return len(c.Pipeline.stages)
}

// StageName returns the name for a 1-based stage index.
func (c *Config) StageName(stageIdx int) (string, error) {
	if stageIdx < 1 || stageIdx > len(c.Pipeline.stages) {
		return "", fmt.Errorf("config: stage_idx %d out of range (1-%d)", stageIdx, len(c.Pipeline.stages))
	}
	return c.Pipeline.stages[stageIdx-1].Name, nil
}

// StagePrompt returns the prompt of the given kind for a 1-based stage
// index. An out-of-range index or unknown kind is an error, caught before
// any LLM call is made.
func (c *Config) StagePrompt(stageIdx int, kind PromptKind) (string, error) {
	if stageIdx < 1 || stageIdx > len(c.Pipeline.stages) {
		return "", fmt.Errorf("config: stage_idx %d out of range (1-%d)", stageIdx, len(c.Pipeline.stages))
	}
	stage := c.Pipeline.stages[stageIdx-1]
	p := stage.prompt(kind)
	if p == "" {
		return "", fmt.Errorf("config: prompt type %q not found for stage %q", kind, stage.Name)
	}
	return p, nil
}

// LogDir returns the configured log directory, defaulting to
// <config dir>/logs or ./logs when no config file was loaded.
func (c *Config) LogDir() string {
	if c.Logging.Dir != "" {
		return c.Logging.Dir
	}
	if c.configDir != "" {
		return filepath.Join(c.configDir, "logs")
	}
	return "logs"
}
