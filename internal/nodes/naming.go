package nodes

import (
	"strings"
	"unicode"
)

// words splits an identifier on separators and case boundaries.
// "initializePoolV2" -> [initialize Pool V2], "HTTPServer" -> [HTTP Server].
// Digits stay attached to the word before them.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	rs := []rune(s)
	for i, r := range rs {
		if r == '_' || r == '-' || r == ' ' || r == '.' {
			flush()
			continue
		}
		if unicode.IsUpper(r) && i > 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// SnakeCase converts an identifier to snake_case.
func SnakeCase(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}

// ScreamingSnakeCase converts an identifier to SCREAMING_SNAKE_CASE.
func ScreamingSnakeCase(s string) string {
	return strings.ToUpper(SnakeCase(s))
}

// PascalCase converts an identifier to PascalCase.
func PascalCase(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	return b.String()
}
