package shell

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"src.gsh.sh/pkg/complete"
)

var (
	partialStyle     = color.New(color.FgBlue, color.Bold)
	descriptionStyle = color.New(color.Faint)
)

// Completes line and writes the outcome to out. A unique candidate is shown
// as the completed line. Several candidates are listed, but when there are
// more than the configured number and ask is not nil, only if ask agrees.
func (sh *Shell) writeCompletions(out io.Writer, line string, ask func(n int) bool, width int) {
	res := sh.Completer.Complete(line, len(line))
	switch n := res.Count(); {
	case n == 0:
		return
	case n == 1:
		completed, _ := res.Apply(line, 0)
		fmt.Fprintln(out, completed)
		return
	case n > sh.Config.CompletionQueryItems && ask != nil && !ask(n):
		return
	}
	writeListing(out, res.Items, width)
}

// Writes candidates in columns fitting width, or one per line when some have
// descriptions.
func writeListing(w io.Writer, items []complete.Item, width int) {
	colWidth := 0
	for _, it := range items {
		colWidth = max(colWidth, utf8.RuneCountInString(it.ToShow))
	}
	if slices.ContainsFunc(items, func(it complete.Item) bool { return it.Description != "" }) {
		for _, it := range items {
			fmt.Fprint(w, show(it))
			if it.Description != "" {
				fmt.Fprint(w, pad(it, colWidth+2), descriptionStyle.Sprint(it.Description))
			}
			fmt.Fprintln(w)
		}
		return
	}

	cols := max(1, (width+2)/(colWidth+2))
	rows := (len(items) + cols - 1) / cols
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := c*rows + r
			if i >= len(items) {
				break
			}
			fmt.Fprint(w, show(items[i]))
			if next := i + rows; next < len(items) {
				fmt.Fprint(w, pad(items[i], colWidth+2))
			}
		}
		fmt.Fprintln(w)
	}
}

func show(it complete.Item) string {
	if it.Partial {
		return partialStyle.Sprint(it.ToShow)
	}
	return it.ToShow
}

func pad(it complete.Item, width int) string {
	return strings.Repeat(" ", max(1, width-utf8.RuneCountInString(it.ToShow)))
}
