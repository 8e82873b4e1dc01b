package bind

import (
	"fmt"
	"time"

	"src.gsh.sh/pkg/grammar"
)

// Scalar is the set of types fields can hold. time.Duration is included
// through ~int64.
type Scalar interface {
	~string | ~int | ~int64 | ~uint | ~float64 | ~bool | ~rune
}

// Var returns a Field storing a single value in *p.
func Var[T Scalar](p *T) grammar.Field { return &varField[T]{p: p} }

// VarOf is like Var, but declares the kind explicitly. It is used for kinds
// that share a Go type, like Path and String.
func VarOf[T Scalar](k grammar.Kind, p *T) grammar.Field { return &varField[T]{p, k} }

// List returns a Field storing a list of values in *p.
func List[T Scalar](p *[]T) grammar.Field { return &listField[T]{p: p} }

// ListOf is like List, but declares the kind explicitly.
func ListOf[T Scalar](k grammar.Kind, p *[]T) grammar.Field { return &listField[T]{p, k} }

// Map returns a Field storing key=value pairs in *p.
func Map[T Scalar](p *map[string]T) grammar.Field { return &mapField[T]{p} }

// Ptr returns a Field storing a single value in **p, which is nil when the
// field is reset. It tells an option given as its zero value from an absent
// one.
func Ptr[T Scalar](p **T) grammar.Field { return &ptrField[T]{p} }

type varField[T Scalar] struct {
	p    *T
	kind grammar.Kind
}

func (f *varField[T]) Kind() grammar.Kind { return kindOr[T](f.kind) }
func (f *varField[T]) Reset()             { var zero T; *f.p = zero }

func (f *varField[T]) Set(v any) error {
	t, err := cast[T](v)
	if err == nil {
		*f.p = t
	}
	return err
}

type listField[T Scalar] struct {
	p    *[]T
	kind grammar.Kind
}

func (f *listField[T]) Kind() grammar.Kind { return kindOr[T](f.kind) }
func (f *listField[T]) Reset()             { *f.p = nil }

func (f *listField[T]) Set(v any) error {
	vs, ok := v.([]any)
	if !ok {
		vs = []any{v}
	}
	list := make([]T, len(vs))
	for i, v := range vs {
		t, err := cast[T](v)
		if err != nil {
			return err
		}
		list[i] = t
	}
	*f.p = list
	return nil
}

type mapField[T Scalar] struct{ p *map[string]T }

func (f *mapField[T]) Kind() grammar.Kind { return kindOr[T]("") }
func (f *mapField[T]) Reset()             { *f.p = nil }

func (f *mapField[T]) Set(v any) error {
	vs, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot store %T in a map field", v)
	}
	m := make(map[string]T, len(vs))
	for k, v := range vs {
		t, err := cast[T](v)
		if err != nil {
			return err
		}
		m[k] = t
	}
	*f.p = m
	return nil
}

type ptrField[T Scalar] struct{ p **T }

func (f *ptrField[T]) Kind() grammar.Kind { return kindOr[T]("") }
func (f *ptrField[T]) Reset()             { *f.p = nil }

func (f *ptrField[T]) Set(v any) error {
	t, err := cast[T](v)
	if err == nil {
		*f.p = &t
	}
	return err
}

func cast[T Scalar](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	return zero, fmt.Errorf("cannot store %T in a %T field", v, zero)
}

func kindOr[T Scalar](k grammar.Kind) grammar.Kind {
	if k != "" {
		return k
	}
	var zero T
	switch any(zero).(type) {
	case int:
		return grammar.Int
	case int64:
		return grammar.Int64
	case uint:
		return grammar.Uint
	case float64:
		return grammar.Float
	case bool:
		return grammar.Bool
	case rune:
		return grammar.Rune
	case time.Duration:
		return grammar.Duration
	default:
		return grammar.String
	}
}
