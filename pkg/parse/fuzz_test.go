package parse

import (
	"testing"

	"src.gsh.sh/pkg/token"
)

func FuzzParse(f *testing.F) {
	f.Add("-v --name=x a b")
	f.Add("-Dk=v -- -x")
	f.Add("--na 'quoted arg'")
	f.Fuzz(func(t *testing.T, line string) {
		tokens, err := token.Tokenize(line)
		if err != nil {
			return
		}
		Parse(cmdModel, tokens, Config{})
		Complete(cmdModel, tokens)
	})
}
