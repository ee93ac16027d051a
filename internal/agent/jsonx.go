package agent

import (
	"encoding/json"
	"strings"
)

// findJSONCandidates scans s for top-level JSON object candidates. It
// handles nested braces and string escaping with a byte-level state machine;
// ASCII delimiters never appear inside UTF-8 multi-byte sequences, so byte
// iteration is safe.
func findJSONCandidates(s string) []string {
	var candidates []string
	var depth int
	start := -1
	var inString bool
	var escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		if b == '"' {
			inString = true
			continue
		}

		if b == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == '}' {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}

// stripFences removes a single markdown code fence wrapping the content.
// Models ignore "JSON only" instructions often enough that this is cheaper
// than a retry round-trip.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		// Drop the language tag line (```json).
		t = t[i+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

// unmarshalReply decodes a model reply into out. It tries the content
// as-is, then with fences stripped, then each embedded object candidate in
// order. Returns false when nothing decodes.
func unmarshalReply(content string, out interface{}) bool {
	trimmed := strings.TrimSpace(content)
	if json.Unmarshal([]byte(trimmed), out) == nil {
		return true
	}
	if stripped := stripFences(trimmed); stripped != trimmed {
		if json.Unmarshal([]byte(stripped), out) == nil {
			return true
		}
	}
	for _, candidate := range findJSONCandidates(trimmed) {
		if json.Unmarshal([]byte(candidate), out) == nil {
			return true
		}
	}
	return false
}
