package bind

import (
	"maps"

	"src.gsh.sh/pkg/grammar"
)

// Record is a Target for commands that have no Go type of their own, like
// commands declared in grammar files. It has one field per option and one
// for the arguments, typed after the grammar.
type Record struct {
	fields grammar.Fields
	values map[string]any
}

// NewRecord builds a Record for the options and argument of m.
func NewRecord(m *grammar.Model) *Record {
	r := &Record{fields: make(grammar.Fields), values: make(map[string]any)}
	for _, o := range m.Options() {
		r.fields[o.Field] = &recordField{r, o.Field, o.Kind}
	}
	if a := m.Argument(); a != nil {
		r.fields[a.Field] = &recordField{r, a.Field, a.Kind}
	}
	return r
}

// Fields implements grammar.Target.
func (r *Record) Fields() grammar.Fields { return r.fields }

// Get returns the value of a field, or nil if the field is unset. List
// fields hold []any and GroupMap fields hold map[string]any.
func (r *Record) Get(name string) any { return r.values[name] }

// Values returns a copy of all set fields.
func (r *Record) Values() map[string]any { return maps.Clone(r.values) }

type recordField struct {
	r    *Record
	name string
	kind grammar.Kind
}

func (f *recordField) Kind() grammar.Kind { return f.kind }
func (f *recordField) Set(v any) error    { f.r.values[f.name] = v; return nil }
func (f *recordField) Reset()             { delete(f.r.values, f.name) }
