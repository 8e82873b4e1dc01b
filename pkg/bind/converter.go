package bind

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/grammar"
)

// ConverterTable maps kinds to converters.
type ConverterTable struct {
	converters map[grammar.Kind]grammar.Converter
}

// NewConverterTable returns a table with converters for the built-in kinds.
// Paths are resolved against dirs; when dirs is nil they are only
// tilde-expanded.
func NewConverterTable(dirs fsutil.Dirs) *ConverterTable {
	t := &ConverterTable{converters: map[grammar.Kind]grammar.Converter{
		grammar.String: func(s string) (any, error) { return s, nil },
		grammar.Int: func(s string) (any, error) {
			i, err := strconv.ParseInt(s, 0, 0)
			return int(i), numError(err)
		},
		grammar.Int64: func(s string) (any, error) {
			i, err := strconv.ParseInt(s, 0, 64)
			return i, numError(err)
		},
		grammar.Uint: func(s string) (any, error) {
			u, err := strconv.ParseUint(s, 0, 0)
			return uint(u), numError(err)
		},
		grammar.Float: func(s string) (any, error) {
			f, err := strconv.ParseFloat(s, 64)
			return f, numError(err)
		},
		grammar.Bool:     convertBool,
		grammar.Rune:     convertRune,
		grammar.Duration: convertDuration,
		grammar.Path: func(s string) (any, error) {
			if dirs == nil {
				return fsutil.ExpandTilde(s)
			}
			return fsutil.Resolve(dirs, s)
		},
	}}
	return t
}

// Register adds or replaces the converter for a kind.
func (t *ConverterTable) Register(k grammar.Kind, c grammar.Converter) {
	t.converters[k] = c
}

// Lookup finds the converter for a kind.
func (t *ConverterTable) Lookup(k grammar.Kind) (grammar.Converter, bool) {
	c, ok := t.converters[k]
	return c, ok
}

// Convert converts s to the kind k.
func (t *ConverterTable) Convert(k grammar.Kind, s string) (any, error) {
	c, ok := t.Lookup(k)
	if !ok {
		return nil, fmt.Errorf("no converter for kind %s", k)
	}
	return c(s)
}

func numError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return fmt.Errorf("%q is not a valid number", ne.Num)
	}
	return err
}

func convertBool(s string) (any, error) {
	switch strings.ToLower(s) {
	case "", "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return nil, fmt.Errorf("%q is not a valid boolean", s)
}

func convertRune(s string) (any, error) {
	if utf8.RuneCountInString(s) != 1 {
		return nil, fmt.Errorf("%q is not a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

func convertDuration(s string) (any, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return nil, fmt.Errorf("%q is not a valid duration", s)
}
