// Package agent implements the three model-facing sub-agents of the
// refinement pipeline: diagnostic, questioning, and integration. Each agent
// makes blocking gateway calls and parses the model's JSON reply; a reply
// that violates the agent's contract is a ProtocolError that aborts the run.
package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// StageRef identifies which stage an agent is acting for, so errors can be
// attributed without threading the whole stage definition around.
type StageRef struct {
	Idx  int // 1-based
	Name string
}

// ProtocolError reports a model reply that does not satisfy an agent's
// output contract. The run aborts; there is no retry.
type ProtocolError struct {
	Agent  string
	Stage  StageRef
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s agent (stage %d %q): %s", e.Agent, e.Stage.Idx, e.Stage.Name, e.Reason)
}

func protocolErr(agent string, stage StageRef, format string, args ...interface{}) error {
	return &ProtocolError{Agent: agent, Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

// sanitizeText replaces invalid UTF-8 and lone surrogate code points with
// the replacement character. Some local model servers leak surrogates in
// JSON string escapes; once decoded they would poison every later prompt
// that embeds the text.
func sanitizeText(s string) string {
	if utf8.ValidString(s) && !strings.ContainsFunc(s, isSurrogate) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError || isSurrogate(r) {
			b.WriteRune('�')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSurrogate(r rune) bool {
	return r >= 0xD800 && r <= 0xDFFF
}
