package agent

import (
	"context"
	"fmt"

	"promptforge/internal/console"
	"promptforge/internal/gateway"
)

// mockClient returns scripted replies in order and records every call.
type mockClient struct {
	replies []string
	errs    []error
	calls   []invokeCall
}

type invokeCall struct {
	userPrompt   string
	systemPrompt string
	opts         gateway.Options
}

func (m *mockClient) Invoke(_ context.Context, userPrompt, systemPrompt string, opts gateway.Options) (string, error) {
	i := len(m.calls)
	m.calls = append(m.calls, invokeCall{userPrompt: userPrompt, systemPrompt: systemPrompt, opts: opts})
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i >= len(m.replies) {
		return "", fmt.Errorf("mockClient: unexpected call %d", i)
	}
	return m.replies[i], nil
}

func (m *mockClient) Model() string     { return "mock-model" }
func (m *mockClient) SetModel(_ string) {}

// mockConsole feeds scripted user inputs and records what was shown.
type mockConsole struct {
	inputs     []string
	next       int
	prompts    []string
	optionSets [][]string
	messages   []string
	waits      int
	clears     int
}

var _ console.UserInterface = (*mockConsole)(nil)

func (m *mockConsole) UpdateStage(_ int, _ string, _, _ int) {}

func (m *mockConsole) ShowMessage(_ console.Role, text string) {
	m.messages = append(m.messages, text)
}

func (m *mockConsole) ShowWaiting(_ string) { m.waits++ }

func (m *mockConsole) GetUserInput(prompt string, options []string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.optionSets = append(m.optionSets, options)
	if m.next >= len(m.inputs) {
		return "", fmt.Errorf("mockConsole: unexpected input request %d", m.next)
	}
	in := m.inputs[m.next]
	m.next++
	return in, nil
}

func (m *mockConsole) ClearConversation() { m.clears++ }

func testStage() StageRef {
	return StageRef{Idx: 3, Name: "Input/Output Disambiguation"}
}
