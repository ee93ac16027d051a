package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"promptforge/internal/config"
	"promptforge/internal/console"
	"promptforge/internal/gateway"
	"promptforge/internal/logging"
	"promptforge/internal/pipeline"
)

const version = "0.1.0"

var (
	// Global flags
	verbose    bool
	configPath string
	inputPath  string
	outputPath string
	model      string

	// Logger
	logger *zap.Logger
)

// rootCmd runs the interactive refinement pipeline.
var rootCmd = &cobra.Command{
	Use:   "promptforge",
	Short: "Interactive prompt refinement through staged interviews",
	Long: `promptforge refines a rough prompt into a precise one by interviewing you.

It walks the prompt through six fixed stages, each examining one dimension:
input/output skeleton, execution strategy skeleton, disambiguation of both,
and robustness of both. Each stage diagnoses gaps, asks clarifying questions
(with bounded follow-ups), then rewrites the prompt from your answers.

The refined prompt is written to the output file only when a run completes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg = zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Close()
	},
	RunE: runRefine,
}

// stagesCmd lists the configured stages.
var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the refinement stages in pipeline order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return err
		}
		for i, s := range cfg.Stages() {
			fmt.Printf("%d. %s\n", i+1, s.Name)
		}
		return nil
	},
}

// versionCmd prints the version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the promptforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("promptforge %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "promptforge.yaml", "config file path")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", filepath.Join("user", "input_prompt.txt"), "file holding the prompt to refine")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", filepath.Join("user", "output_prompt.txt"), "file the refined prompt is written to")
	rootCmd.Flags().StringVarP(&model, "model", "m", "", "override the configured model")

	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func runRefine(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if err := logging.Initialize(cfg.LogDir(), logging.Settings{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return err
	}
	logger.Debug("configuration loaded",
		zap.String("config", configPath),
		zap.Int("stages", cfg.StageCount()))

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input prompt: %w (run `promptforge init` to scaffold a workspace)", err)
	}
	prompt := strings.TrimSpace(string(raw))
	if prompt == "" {
		return fmt.Errorf("input prompt %s is empty", inputPath)
	}

	client, err := gateway.NewClientFromConfig(cfg.LLM)
	if err != nil {
		return err
	}
	if model != "" {
		client.SetModel(model)
	}
	logger.Info("starting refinement",
		zap.String("model", client.Model()),
		zap.Int("stages", cfg.StageCount()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui := console.NewTerminal(cfg.StageCount())
	refined, err := pipeline.New(cfg, client, ui).Run(ctx, prompt)
	if err != nil {
		if errors.Is(err, gateway.ErrTransport) {
			fmt.Fprintf(os.Stderr, "\nCould not reach the model server at %s.\n", cfg.LLM.BaseURL)
			fmt.Fprintln(os.Stderr, "Check that it is running, or set LLM_BASE_URL / llm.base_url to the right address.")
		}
		return err
	}

	if err := writeOutput(outputPath, refined); err != nil {
		return err
	}
	fmt.Println()
	ui.RenderFinalPrompt(refined)
	fmt.Printf("Refined prompt written to %s\n", outputPath)
	return nil
}

// writeOutput writes the refined prompt, creating the parent directory.
// Only called on success: an aborted run never touches the output file.
func writeOutput(path, prompt string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(prompt+"\n"), 0644); err != nil {
		return fmt.Errorf("write output prompt: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
