package shell

import (
	"slices"

	"src.gsh.sh/pkg/parse"
)

// Check finds the problems of a line without running it: syntax errors,
// unknown or inactive commands and errors in the words given to commands.
// Errors are *diag.Error values positioned in the line when possible.
func (sh *Shell) Check(line string) []error {
	pipelines, err := compile(sh.Operators, line)
	if err != nil {
		return []error{err}
	}
	var errs []error
	for _, p := range pipelines {
		for _, st := range p.stages {
			words := sh.expandAlias(st.words)
			m, err := sh.Registry.Resolve(words[0].Value)
			if err != nil {
				errs = append(errs, withRange(err, words[0]))
				continue
			}
			res := parse.Parse(m, words[1:], parse.Config{})
			if res.Overridden() {
				continue
			}
			for _, r := range res.Chain() {
				for _, err := range slices.Concat(r.Errors, r.Deferred) {
					errs = append(errs, withRange(err, words[0]))
				}
			}
		}
	}
	return errs
}
