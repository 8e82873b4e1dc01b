package token

import (
	"strings"

	"src.gsh.sh/pkg/diag"
)

// Token is a word of a segment.
type Token struct {
	// The word as typed, including quotes and backslashes.
	Raw string
	// The word with quotes removed and escapes resolved.
	Value string
	// Position of Raw in the tokenized text.
	diag.Ranging
	// The quote left open at the end of the input, or 0. Only the last token
	// can have an open quote.
	Quote rune
}

// Tokenize splits a segment into words on unquoted, unescaped whitespace.
//
// Single quotes preserve everything up to the closing single quote. Double
// quotes preserve everything except that \" and \\ are unescaped. Outside
// quotes a backslash escapes the next character; a trailing lone backslash
// is kept literally.
//
// If the input ends inside a quote, the tokens are returned with a partial
// tokenize error, and the last token has its Quote field set.
func Tokenize(s string) ([]Token, error) {
	var (
		tokens []Token
		value  strings.Builder
		inWord bool
		start  int
		quote  byte
		qStart int
	)
	flush := func(end int) {
		tokens = append(tokens, Token{
			Raw: s[start:end], Value: value.String(),
			Ranging: diag.Ranging{From: start, To: end}, Quote: rune(quote)})
		value.Reset()
		inWord = false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote == '\'':
			if c == '\'' {
				quote = 0
			} else {
				value.WriteByte(c)
			}
		case quote == '"':
			switch {
			case c == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\'):
				value.WriteByte(s[i+1])
				i++
			case c == '"':
				quote = 0
			default:
				value.WriteByte(c)
			}
		case isSpace(c):
			if inWord {
				flush(i)
			}
		default:
			if !inWord {
				inWord, start = true, i
			}
			switch c {
			case '\\':
				if i+1 < len(s) {
					value.WriteByte(s[i+1])
					i++
				} else {
					value.WriteByte(c)
				}
			case '\'', '"':
				quote, qStart = c, i
			default:
				value.WriteByte(c)
			}
		}
	}
	if inWord {
		flush(len(s))
	}
	if quote != 0 {
		return tokens, unterminated(quote, qStart, len(s))
	}
	return tokens, nil
}

// Values returns the values of the tokens.
func Values(tokens []Token) []string {
	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Value
	}
	return values
}

// Join joins the raw text of tokens with single spaces.
func Join(tokens []Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Raw)
	}
	return sb.String()
}
