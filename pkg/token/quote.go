package token

import "strings"

// Characters that must be escaped in an unquoted word.
const special = " \t\n\r\\'\"|&;<>"

// Escape escapes s so that it tokenizes to a single word with the value s
// and contains no operator.
func Escape(s string) string {
	if !strings.ContainsAny(s, special) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// QuoteIn escapes s for insertion after an opening quote q, which is a single
// quote, a double quote or 0 for none. The quote is left open.
func QuoteIn(s string, q rune) string {
	switch q {
	case '\'':
		return strings.ReplaceAll(s, "'", `'\''`)
	case '"':
		return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
	default:
		return Escape(s)
	}
}

// Quote returns a representation of s that tokenizes to a single word with
// the value s. Words needing no escaping are returned as is; others are
// single-quoted.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, special) {
		return s
	}
	return "'" + QuoteIn(s, '\'') + "'"
}
