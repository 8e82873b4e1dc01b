package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	kindStyle    = color.New(color.FgRed, color.Bold)
	culpritStyle = color.New(color.Underline, color.Bold)
)

// Show writes err to w. Errors of this package are shown with their kind
// highlighted; if line is non-empty and the error carries a range, the
// offending part of line is marked on a second line.
func Show(w io.Writer, err error, line string) {
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintln(w, kindStyle.Sprint(err.Error()))
		return
	}
	fmt.Fprintf(w, "%s: %s\n", kindStyle.Sprint(e.Kind.String()), strings.TrimPrefix(e.Error(), e.Kind.String()+": "))
	if line == "" || e.To == 0 || e.To > len(line) || e.From > e.To {
		return
	}
	fmt.Fprintf(w, "  %s%s%s\n", line[:e.From], culpritStyle.Sprint(line[e.From:e.To]), line[e.To:])
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", e.From), strings.Repeat("^", max(e.To-e.From, 1)))
}
