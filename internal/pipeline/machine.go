package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"promptforge/internal/agent"
	"promptforge/internal/config"
	"promptforge/internal/console"
	"promptforge/internal/gateway"
	"promptforge/internal/logging"
)

// Machine runs the refinement pipeline. One Machine handles one run.
type Machine struct {
	cfg        *config.Config
	diagnostic *agent.Diagnostic
	questioner *agent.Questioner
	integrator *agent.Integrator
	ui         console.UserInterface

	state State
	phase Phase
}

// New builds a Machine over the given gateway client and console.
func New(cfg *config.Config, client gateway.Client, ui console.UserInterface) *Machine {
	return &Machine{
		cfg:        cfg,
		diagnostic: agent.NewDiagnostic(client),
		questioner: agent.NewQuestioner(client, cfg.Pipeline.MaxFollowupCount),
		integrator: agent.NewIntegrator(client),
		ui:         ui,
	}
}

// Snapshot returns a copy of the current run state.
func (m *Machine) Snapshot() State {
	return m.state.snapshot()
}

// Run executes the full pipeline on initialPrompt and returns the refined
// prompt. Any sub-agent, gateway, or console failure aborts the run; the
// prompt-in-progress is not recoverable by design, a partial rewrite is
// worse than rerunning.
func (m *Machine) Run(ctx context.Context, initialPrompt string) (string, error) {
	if strings.TrimSpace(initialPrompt) == "" {
		return "", fmt.Errorf("pipeline: initial prompt is empty")
	}

	m.state = State{
		RunID:         uuid.New().String(),
		CurrentPrompt: initialPrompt,
		StageIdx:      1,
	}
	m.phase = PhaseInitStage
	logging.Pipeline("run %s: starting, %d stages, prompt %d chars",
		m.state.RunID, m.cfg.StageCount(), len(initialPrompt))

	for m.phase != PhaseTerminal {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("pipeline: run cancelled: %w", err)
		}
		// The guard bounds total transitions so a contract bug (a phase
		// that never advances) cannot loop forever against a paid API.
		if m.state.Transitions >= m.cfg.Pipeline.MaxTransitions {
			return "", fmt.Errorf("pipeline: transition guard tripped after %d transitions (stage %d, phase %s)",
				m.state.Transitions, m.state.StageIdx, m.phase)
		}
		m.state.Transitions++

		next, err := m.step(ctx)
		if err != nil {
			logging.PipelineError("run %s: aborted in phase %s: %v", m.state.RunID, m.phase, err)
			return "", err
		}
		logging.PipelineDebug("run %s: %s -> %s (stage %d, transition %d)",
			m.state.RunID, m.phase, next, m.state.StageIdx, m.state.Transitions)
		m.phase = next
	}

	logging.Pipeline("run %s: finished in %d transitions, prompt %d chars",
		m.state.RunID, m.state.Transitions, len(m.state.CurrentPrompt))
	return m.state.CurrentPrompt, nil
}

func (m *Machine) step(ctx context.Context) (Phase, error) {
	switch m.phase {
	case PhaseInitStage:
		return m.stepInitStage()
	case PhaseDiagnose:
		return m.stepDiagnose(ctx)
	case PhaseQuestion:
		return m.stepQuestion(ctx)
	case PhaseIntegrate:
		return m.stepIntegrate(ctx)
	case PhaseAdvanceStage:
		return m.stepAdvanceStage()
	default:
		return PhaseTerminal, fmt.Errorf("pipeline: unknown phase %q", m.phase)
	}
}

// stepInitStage resets per-stage state, or ends the run once every stage
// has been visited.
func (m *Machine) stepInitStage() (Phase, error) {
	if m.state.StageIdx > m.cfg.StageCount() {
		return PhaseTerminal, nil
	}
	m.state.Questions = nil
	m.state.QuestionIdx = 0
	m.state.Answers = nil
	return PhaseDiagnose, nil
}

func (m *Machine) stepDiagnose(ctx context.Context) (Phase, error) {
	stage, sysPrompt, err := m.stagePrompt(config.PromptDiagnostic)
	if err != nil {
		return PhaseTerminal, err
	}
	m.ui.UpdateStage(m.state.StageIdx, console.SubstageDiagnose, 0, 0)
	m.ui.ShowWaiting("examining the prompt")

	questions, err := m.diagnostic.Run(ctx, stage, sysPrompt, m.state.CurrentPrompt)
	if err != nil {
		return PhaseTerminal, err
	}
	m.state.Questions = questions
	m.state.QuestionIdx = 0
	return PhaseQuestion, nil
}

// stepQuestion asks the next pending question, or hands over to integration
// once the list is exhausted. A stage with no questions integrates
// immediately.
func (m *Machine) stepQuestion(ctx context.Context) (Phase, error) {
	if m.state.QuestionIdx >= len(m.state.Questions) {
		return PhaseIntegrate, nil
	}

	stage, followupPrompt, err := m.stagePrompt(config.PromptQuestioningFollowup)
	if err != nil {
		return PhaseTerminal, err
	}
	_, compressPrompt, err := m.stagePrompt(config.PromptQuestioningCompress)
	if err != nil {
		return PhaseTerminal, err
	}

	question := m.state.Questions[m.state.QuestionIdx]
	m.ui.UpdateStage(m.state.StageIdx, console.SubstageDialogue,
		m.state.QuestionIdx+1, len(m.state.Questions))

	compressed, err := m.questioner.RunQuestion(ctx, stage, followupPrompt, compressPrompt, question, m.ui)
	if err != nil {
		return PhaseTerminal, err
	}
	m.state.Answers = append(m.state.Answers, compressed)
	m.state.QuestionIdx++
	return PhaseQuestion, nil
}

func (m *Machine) stepIntegrate(ctx context.Context) (Phase, error) {
	stage, sysPrompt, err := m.stagePrompt(config.PromptIntegration)
	if err != nil {
		return PhaseTerminal, err
	}
	m.ui.UpdateStage(m.state.StageIdx, console.SubstageIntegrate, 0, 0)
	m.ui.ShowWaiting("rewriting the prompt")

	rewritten, err := m.integrator.Run(ctx, stage, sysPrompt, m.state.CurrentPrompt, m.state.Answers)
	if err != nil {
		return PhaseTerminal, err
	}
	m.state.CurrentPrompt = rewritten
	return PhaseAdvanceStage, nil
}

func (m *Machine) stepAdvanceStage() (Phase, error) {
	m.state.StageIdx++
	return PhaseInitStage, nil
}

// stagePrompt resolves the current stage's name and one of its prompts.
// Failing here, before any model call, turns a bad index or a hole in the
// config into an immediate error instead of a half-finished stage.
func (m *Machine) stagePrompt(kind config.PromptKind) (agent.StageRef, string, error) {
	name, err := m.cfg.StageName(m.state.StageIdx)
	if err != nil {
		return agent.StageRef{}, "", err
	}
	p, err := m.cfg.StagePrompt(m.state.StageIdx, kind)
	if err != nil {
		return agent.StageRef{}, "", err
	}
	return agent.StageRef{Idx: m.state.StageIdx, Name: name}, p, nil
}
