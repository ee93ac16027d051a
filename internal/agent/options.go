package agent

import (
	"strings"
	"unicode"
)

// parseOptionLetters returns the option letters in answer, in order, when
// the whole answer is nothing but single letters joined by separators
// (commas, slashes, whitespace, and the full-width comma and middle dot that
// CJK keyboards produce). Any other content means the user typed a real
// answer and nil is returned.
func parseOptionLetters(answer string) []string {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		switch r {
		case ',', '/', '，', '・':
			return true
		}
		return unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil
	}
	letters := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) != 1 {
			return nil
		}
		c := f[0]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return nil
		}
		letters = append(letters, strings.ToUpper(f))
	}
	return letters
}

// optionText returns the text of the option labeled with letter, looking for
// the "X) text" shape the follow-up contract prescribes. Match is
// case-insensitive on the letter.
func optionText(letter string, options []string) (string, bool) {
	for _, opt := range options {
		trimmed := strings.TrimSpace(opt)
		if len(trimmed) < 2 || trimmed[1] != ')' {
			continue
		}
		if strings.EqualFold(trimmed[:1], letter) {
			return strings.TrimSpace(trimmed[2:]), true
		}
	}
	return "", false
}

// expandOptionLetters rewrites a bare option-letter answer so later model
// calls see the option text, not just "B". Letters are deduplicated keeping
// first occurrence; letters with no matching option are dropped from the
// parenthetical. When nothing matches, or the answer is not a bare letter
// list, the raw answer passes through unchanged.
func expandOptionLetters(answer string, options []string) string {
	if len(options) == 0 {
		return answer
	}
	letters := parseOptionLetters(answer)
	if len(letters) == 0 {
		return answer
	}

	seen := make(map[string]bool, len(letters))
	var texts []string
	for _, l := range letters {
		if seen[l] {
			continue
		}
		seen[l] = true
		if text, ok := optionText(l, options); ok {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return answer
	}
	return strings.TrimSpace(answer) + " (" + strings.Join(texts, ", ") + ")"
}
