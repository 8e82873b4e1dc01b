package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/sys"
)

// Asks for the values of options with selectors on the terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// The file in is read from, used to turn off echo for secrets.
	file *os.File
}

func (p *prompter) Prompt(o *grammar.OptionSpec) (string, error) {
	sel := o.Selector
	text := sel.Prompt
	if text == "" {
		text = o.Display()
	}
	if len(sel.Choices) > 0 {
		fmt.Fprintf(p.out, "%s [%s]: ", text, strings.Join(sel.Choices, "/"))
	} else {
		fmt.Fprintf(p.out, "%s: ", text)
	}
	var line string
	read := func() error {
		var err error
		line, err = p.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		return err
	}
	var err error
	if sel.Secret && p.file != nil {
		err = sys.WithoutEcho(p.file, read)
		fmt.Fprintln(p.out)
	} else {
		err = read()
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
