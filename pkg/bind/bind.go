// Package bind converts the raw values of a parse result and stores them in
// the fields of a target.
//
// For every option and argument, one of the following happens, in order of
// preference: values that were given are converted and stored; an option
// with a Selector is filled by the Prompter; defaults are converted and
// stored; otherwise the field is reset to its zero value. The reset makes it
// safe to bind into the same target over and over.
package bind

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/logutil"
	"src.gsh.sh/pkg/parse"
)

var logger = logutil.GetLogger("[bind] ")

// Mode selects how strictly Bind checks its input.
type Mode uint8

// Possible values of Mode.
const (
	// Return parse errors and missing requirements, and run validators.
	Validate Mode = iota
	// Bind what can be bound, skipping values that do not convert. Used to
	// inspect a partial line.
	Introspect
)

// Prompter asks the user for the value of an option with a Selector.
type Prompter interface {
	Prompt(o *grammar.OptionSpec) (string, error)
}

// Binder binds parse results into targets.
type Binder struct {
	Converters *ConverterTable
	// May be nil, in which case options with selectors fall back to their
	// defaults.
	Prompter Prompter
}

// New returns a Binder using the built-in converters.
func New(dirs fsutil.Dirs, p Prompter) *Binder {
	return &Binder{Converters: NewConverterTable(dirs), Prompter: p}
}

// Bind binds res into target. In Validate mode, parse errors and deferred
// errors of res are returned before anything is bound.
func (b *Binder) Bind(res *parse.Result, target grammar.Target, mode Mode) error {
	if mode == Validate {
		if err := res.Err(); err != nil {
			return err
		}
	}
	return b.bind(res, target, mode)
}

// BindAll binds every result in the chain of res into the target of its
// model, skipping models without a target.
func (b *Binder) BindAll(res *parse.Result, mode Mode) error {
	if mode == Validate {
		for _, r := range res.Chain() {
			if err := r.Err(); err != nil {
				return err
			}
		}
	}
	for _, r := range res.Chain() {
		if t := r.Model.Target(); t != nil {
			if err := b.bind(r, t, mode); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Binder) bind(res *parse.Result, target grammar.Target, mode Mode) error {
	m := res.Model
	if target == nil {
		return nil
	}
	fields := target.Fields()
	var errs []error
	for _, o := range m.Options() {
		f, ok := fields[o.Field]
		if !ok {
			if !o.OverrideRequired && mode == Validate {
				errs = append(errs, diag.Errorf(diag.GrammarDefinition, o.Display(),
					"%s: no field %q for option %s", m.Path(), o.Field, o.Display()))
			}
			continue
		}
		if err := b.fill(f, optionSlot(res, o), mode); err != nil {
			errs = append(errs, err)
		}
	}
	if a := m.Argument(); a != nil {
		f, ok := fields[a.Field]
		switch {
		case ok:
			if err := b.fill(f, argumentSlot(res, a), mode); err != nil {
				errs = append(errs, err)
			}
		case mode == Validate:
			errs = append(errs, diag.Errorf(diag.GrammarDefinition, a.Field,
				"%s: no field %q for arguments", m.Path(), a.Field))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if v := m.Validator(); v != nil && mode == Validate {
		if err := v(target); err != nil {
			return diag.Wrap(diag.Validation, m.Path(), err)
		}
	}
	return nil
}

// What fill needs to know about an option or an argument.
type slot struct {
	name      string
	given     bool
	values    []string
	group     map[string]string
	isList    bool
	isGroup   bool
	isFlag    bool
	defaults  []string
	kind      grammar.Kind
	converter grammar.Converter
	validator grammar.OptionValidator
	option    *grammar.OptionSpec
}

func optionSlot(res *parse.Result, o *grammar.OptionSpec) slot {
	return slot{
		name:      o.Display(),
		given:     res.Given(o),
		values:    res.OptionValues(o),
		group:     res.Group(o),
		isList:    o.Multiplicity == grammar.List,
		isGroup:   o.Multiplicity == grammar.GroupMap,
		isFlag:    !o.HasValue && o.Multiplicity == grammar.Single,
		defaults:  o.Defaults,
		kind:      o.Kind,
		converter: o.Converter,
		validator: o.Validator,
		option:    o,
	}
}

func argumentSlot(res *parse.Result, a *grammar.ArgumentSpec) slot {
	args := res.Arguments()
	name := "<" + a.ValueName + ">"
	if a.ValueName == "" {
		name = "<arg>"
	}
	return slot{
		name:      name,
		given:     len(args) > 0,
		values:    args,
		isList:    a.Multiple,
		defaults:  a.Defaults,
		kind:      a.Kind,
		converter: a.Converter,
		validator: a.Validator,
	}
}

// Stores the value of s in f, or resets f.
func (b *Binder) fill(f grammar.Field, s slot, mode Mode) error {
	v, ok, err := b.value(f, s, mode)
	if err == nil && ok && s.validator != nil && mode == Validate {
		if verr := s.validator(v); verr != nil {
			err = diag.Wrap(diag.Validation, s.name, verr)
		}
	}
	if err == nil && ok {
		if serr := f.Set(v); serr != nil {
			err = diag.Wrap(diag.Conversion, s.name, serr)
		}
	}
	if err != nil || !ok {
		reset(f, s.isFlag)
	}
	if err != nil && mode == Introspect {
		logger.Debug().Str("name", s.name).Err(err).Msg("skipping value")
		return nil
	}
	return err
}

// Computes the value of s. The bool result is false when there is nothing to
// store.
func (b *Binder) value(f grammar.Field, s slot, mode Mode) (any, bool, error) {
	convert, err := b.converter(f, s)
	if err != nil {
		return nil, false, err
	}
	o := s.option
	switch {
	case s.given && s.isGroup:
		return convertGroup(s.group, convert)
	case s.given:
		return convertValues(s.values, s.isList, convert)
	case o != nil && o.Selector != nil && b.Prompter != nil && mode == Validate:
		answer, err := b.Prompter.Prompt(o)
		if err != nil {
			return nil, false, err
		}
		if len(o.Selector.Choices) > 0 && !slices.Contains(o.Selector.Choices, answer) {
			return nil, false, diag.Errorf(diag.Validation, s.name,
				"%q is not one of %s", answer, strings.Join(o.Selector.Choices, ", "))
		}
		return convertValues([]string{answer}, s.isList, convert)
	case len(s.defaults) > 0 && s.isGroup:
		group := make(map[string]string)
		for _, kv := range s.defaults {
			k, v, _ := strings.Cut(kv, "=")
			group[k] = v
		}
		return convertGroup(group, convert)
	case len(s.defaults) > 0:
		return convertValues(s.defaults, s.isList, convert)
	case o != nil && o.Required && o.Selector != nil && mode == Validate:
		return nil, false, diag.Errorf(diag.RequiredMissing, s.name, "option %s is required", s.name)
	}
	return nil, false, nil
}

func (b *Binder) converter(f grammar.Field, s slot) (func(string) (any, error), error) {
	c := s.converter
	if c == nil {
		kind := f.Kind()
		if kind == grammar.String && s.kind == grammar.Path {
			kind = grammar.Path
		}
		var ok bool
		if c, ok = b.Converters.Lookup(kind); !ok {
			return nil, diag.Errorf(diag.GrammarDefinition, s.name, "no converter for kind %s", kind)
		}
	}
	return func(raw string) (any, error) {
		v, err := c(raw)
		if err != nil {
			return nil, &diag.Error{
				Kind: diag.Conversion, Name: s.name, Err: err,
				Message: fmt.Sprintf("%s: %v", s.name, err),
			}
		}
		return v, nil
	}, nil
}

func convertValues(values []string, list bool, convert func(string) (any, error)) (any, bool, error) {
	if !list {
		v, err := convert(values[len(values)-1])
		return v, err == nil, err
	}
	vs := make([]any, len(values))
	for i, raw := range values {
		v, err := convert(raw)
		if err != nil {
			return nil, false, err
		}
		vs[i] = v
	}
	return vs, true, nil
}

func convertGroup(group map[string]string, convert func(string) (any, error)) (any, bool, error) {
	m := make(map[string]any, len(group))
	for k, raw := range group {
		v, err := convert(raw)
		if err != nil {
			return nil, false, err
		}
		m[k] = v
	}
	return m, true, nil
}

// Resets f. An absent flag is false, also in a field that could hold nil.
func reset(f grammar.Field, isFlag bool) {
	if p, ok := f.(*ptrField[bool]); ok && isFlag {
		no := false
		*p.p = &no
		return
	}
	f.Reset()
}
