package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"promptforge/internal/config"
)

// initCmd scaffolds a promptforge workspace: a config file, one prompt
// template directory per stage, and a placeholder input prompt. Existing
// files are left alone so rerunning init never clobbers edits.
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Scaffold a promptforge workspace with editable stage prompts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg := config.DefaultConfig()
	var created []string

	for _, stage := range cfg.Stages() {
		dir := filepath.Join(root, "prompts", stageSlug(stage.Name))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		prompts := map[config.PromptKind]string{
			config.PromptDiagnostic:          stage.Diagnostic,
			config.PromptQuestioningFollowup: stage.QuestioningFollowup,
			config.PromptQuestioningCompress: stage.QuestioningCompress,
			config.PromptIntegration:         stage.Integration,
		}
		for _, kind := range config.PromptKinds {
			path := filepath.Join(dir, string(kind)+".md")
			wrote, err := writeIfAbsent(path, prompts[kind])
			if err != nil {
				return err
			}
			if wrote {
				created = append(created, path)
			}
		}

		cfg.Pipeline.StageFiles = append(cfg.Pipeline.StageFiles, config.StageFileSpec{
			Name: stage.Name,
			Prompts: map[string]string{
				string(config.PromptDiagnostic):          filepath.Join("prompts", stageSlug(stage.Name), "diagnostic.md"),
				string(config.PromptQuestioningFollowup): filepath.Join("prompts", stageSlug(stage.Name), "questioning_followup.md"),
				string(config.PromptQuestioningCompress): filepath.Join("prompts", stageSlug(stage.Name), "questioning_compress.md"),
				string(config.PromptIntegration):         filepath.Join("prompts", stageSlug(stage.Name), "integration.md"),
			},
		})
	}

	cfgPath := filepath.Join(root, "promptforge.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		created = append(created, cfgPath)
	}

	inputFile := filepath.Join(root, "user", "input_prompt.txt")
	wrote, err := writeIfAbsent(inputFile, "Replace this line with the prompt you want to refine.\n")
	if err != nil {
		return err
	}
	if wrote {
		created = append(created, inputFile)
	}

	if len(created) == 0 {
		fmt.Println("Workspace already initialized; nothing to do.")
		return nil
	}
	fmt.Printf("Created %d file(s):\n", len(created))
	for _, p := range created {
		fmt.Printf("  %s\n", p)
	}
	fmt.Println("\nEdit user/input_prompt.txt, then run `promptforge` to start refining.")
	return nil
}

// writeIfAbsent writes content to path unless it already exists.
func writeIfAbsent(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// stageSlug turns a stage name into a directory name.
func stageSlug(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
