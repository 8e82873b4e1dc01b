// Gsh is a shell whose commands are described by grammars. Lines are
// checked against the grammar of each command before anything runs, and the
// same grammars drive completion, generated help and a language server for
// files of command lines.
package main

import (
	"os"

	"src.gsh.sh/pkg/buildinfo"
	"src.gsh.sh/pkg/lsp"
	"src.gsh.sh/pkg/prog"
	"src.gsh.sh/pkg/shell"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args,
		prog.Composite(buildinfo.Program{}, lsp.Program{}, shell.Program{})))
}
