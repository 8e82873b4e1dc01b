package diag

import (
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestShow(t *testing.T) {
	defer func(old bool) { color.NoColor = old }(color.NoColor)
	color.NoColor = true

	tests := []struct {
		name string
		err  error
		line string
		want string
	}{
		{
			name: "error with range",
			err:  Errorf(UnknownOption, "--frob", "--frob").WithRange(Ranging{From: 3, To: 9}),
			line: "ls --frob",
			want: "unknown option: --frob\n  ls --frob\n     ^^^^^^\n",
		},
		{
			name: "error without range",
			err:  Errorf(UnknownCommand, "gut", "gut"),
			line: "gut",
			want: "command not found: gut\n",
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "boom\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var sb strings.Builder
			Show(&sb, test.err, test.line)
			if got := sb.String(); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}
