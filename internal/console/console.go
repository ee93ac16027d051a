// Package console implements the terminal collaborator for the refinement
// pipeline. It renders a stage header, a short rolling conversation, and
// collects multi-line answers from the human. Display calls never influence
// pipeline routing; the orchestrator only reads what GetUserInput returns.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"promptforge/internal/logging"
)

// Role identifies who a conversation message belongs to.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Substage labels shown in the header.
const (
	SubstageDiagnose  = "diagnose"
	SubstageDialogue  = "dialogue"
	SubstageIntegrate = "integrate"
)

// UserInterface is what the pipeline needs from a console. The pipeline
// calls UpdateStage/ShowWaiting for progress display and GetUserInput to
// collect answers; everything else is presentation.
type UserInterface interface {
	UpdateStage(stageIdx int, substage string, questionIdx, totalQuestions int)
	ShowMessage(role Role, text string)
	ShowWaiting(text string)
	GetUserInput(prompt string, options []string) (string, error)
	ClearConversation()
}

// maxBufferSize caps the rolling conversation display.
const maxBufferSize = 10

type message struct {
	role Role
	text string
}

// Terminal is the interactive UserInterface implementation.
type Terminal struct {
	out         io.Writer
	in          *bufio.Reader
	width       int
	totalStages int

	buffer   []message
	stageIdx int
	substage string
	qIdx     int
	qTotal   int

	headerStyle lipgloss.Style
	systemStyle lipgloss.Style
	userStyle   lipgloss.Style
	hintStyle   lipgloss.Style
}

// NewTerminal creates a Terminal reading stdin and writing stdout.
func NewTerminal(totalStages int) *Terminal {
	return NewTerminalWithIO(os.Stdin, os.Stdout, 80, totalStages)
}

// NewTerminalWithIO creates a Terminal with explicit streams (tests).
func NewTerminalWithIO(in io.Reader, out io.Writer, width, totalStages int) *Terminal {
	return &Terminal{
		out:         out,
		in:          bufio.NewReader(in),
		width:       width,
		totalStages: totalStages,
		stageIdx:    1,
		headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		systemStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		userStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Align(lipgloss.Right),
		hintStyle:   lipgloss.NewStyle().Faint(true),
	}
}

// UpdateStage records orchestration progress and redraws the screen.
// questionIdx and totalQuestions are 0 outside the dialogue substage.
func (t *Terminal) UpdateStage(stageIdx int, substage string, questionIdx, totalQuestions int) {
	t.stageIdx = stageIdx
	t.substage = substage
	t.qIdx = questionIdx
	t.qTotal = totalQuestions
	logging.ConsoleDebug("update_stage: %d/%d %s (%d/%d)", stageIdx, t.totalStages, substage, questionIdx, totalQuestions)
	t.refresh()
}

// ShowMessage appends a message to the conversation buffer and redraws.
func (t *Terminal) ShowMessage(role Role, text string) {
	t.buffer = append(t.buffer, message{role: role, text: text})
	if len(t.buffer) > maxBufferSize {
		t.buffer = t.buffer[1:]
	}
	t.refresh()
}

// ShowWaiting prints a transient status line without entering the buffer.
func (t *Terminal) ShowWaiting(text string) {
	fmt.Fprintln(t.out, t.hintStyle.Render("... "+text))
}

// GetUserInput shows the question (and any enumerated options), then reads
// multi-line input terminated by a blank line. EOF also terminates input.
func (t *Terminal) GetUserInput(prompt string, options []string) (string, error) {
	if prompt != "" {
		display := prompt
		if len(options) > 0 {
			display = prompt + "\n" + strings.Join(options, "\n")
		}
		t.ShowMessage(RoleSystem, display)
	}

	fmt.Fprintln(t.out, t.hintStyle.Render("Enter your answer (blank line to finish):"))

	var lines []string
	for {
		fmt.Fprint(t.out, "> ")
		line, err := t.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				if trimmed := strings.TrimRight(line, "\r\n"); strings.TrimSpace(trimmed) != "" {
					lines = append(lines, trimmed)
				}
				break
			}
			return "", fmt.Errorf("console: read input: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}

	answer := strings.Join(lines, "\n")
	t.ShowMessage(RoleUser, answer)
	logging.Console("user input collected: %d chars", len(answer))
	return answer, nil
}

// ClearConversation empties the buffer when moving to the next question.
func (t *Terminal) ClearConversation() {
	t.buffer = nil
	t.refresh()
}

func (t *Terminal) refresh() {
	// ANSI clear + home; good enough for every terminal we care about.
	fmt.Fprint(t.out, "\x1b[2J\x1b[H")
	t.renderHeader()
	for _, m := range t.buffer {
		t.renderMessage(m)
	}
}

func (t *Terminal) renderHeader() {
	info := fmt.Sprintf("Stage %d/%d", t.stageIdx, t.totalStages)
	if t.substage != "" {
		if t.substage == SubstageDialogue && t.qIdx > 0 {
			info += fmt.Sprintf(" - %s (%d/%d)", t.substage, t.qIdx, t.qTotal)
		} else {
			info += " - " + t.substage
		}
	}
	sep := strings.Repeat("=", t.width)
	centered := lipgloss.PlaceHorizontal(t.width, lipgloss.Center, t.headerStyle.Render(info))
	fmt.Fprintf(t.out, "%s\n%s\n%s\n\n", sep, centered, sep)
}

func (t *Terminal) renderMessage(m message) {
	switch m.role {
	case RoleSystem:
		fmt.Fprintln(t.out, t.systemStyle.Render("assistant: "+m.text))
	default:
		// User messages sit on the right, chat style.
		block := t.userStyle.Width(t.width).Render("you: " + m.text)
		fmt.Fprintln(t.out, block)
	}
	fmt.Fprintln(t.out)
}

// RenderFinalPrompt pretty-prints the refined prompt as markdown. Falls
// back to plain text when the terminal renderer cannot be built.
func (t *Terminal) RenderFinalPrompt(prompt string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(t.width),
	)
	if err == nil {
		if out, rerr := r.Render(prompt); rerr == nil {
			fmt.Fprintln(t.out, out)
			return
		}
	}
	fmt.Fprintln(t.out, prompt)
}
