package survey

import "strings"

// Normalize trims surrounding whitespace and uppercases an answer.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Score reports whether answer matches any expected code exactly once both
// are normalized.
func Score(answer string, expected []string) bool {
	a := Normalize(answer)
	if a == "" {
		return false
	}
	for _, e := range expected {
		if a == Normalize(e) {
			return true
		}
	}
	return false
}
