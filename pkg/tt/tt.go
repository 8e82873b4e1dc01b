// Package tt supports table-driven tests with little boilerplate.
//
// See the test case for this package for example usage.
package tt

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Options always passed to cmp. Errors compare with errors.Is, and nil and
// empty slices and maps are interchangeable.
var defaultOpts = []cmp.Option{cmpopts.EquateErrors(), cmpopts.EquateEmpty()}

// Table represents a test table.
type Table []*Case

// Case represents a test case. It is created by the Args function, and offers
// setters that augment and return itself; those calls can be chained like
// Args(...).Rets(...).
type Case struct {
	args         []any
	retsMatchers [][]any
}

// Args returns a new Case with the given arguments.
func Args(args ...any) *Case {
	return &Case{args: args}
}

// Rets modifies the test case so that it requires the return values to match
// the given values. It returns the receiver. The arguments may implement the
// Matcher interface, in which case its Match method is called with the actual
// return value. Otherwise, cmp.Equal is used with the options passed to Test.
func (c *Case) Rets(matchers ...any) *Case {
	c.retsMatchers = append(c.retsMatchers, matchers)
	return c
}

// FnToTest describes a function to test.
type FnToTest struct {
	name    string
	body    any
	argsFmt string
	retsFmt string
}

// Fn makes a new FnToTest with the given function name and body.
func Fn(name string, body any) *FnToTest {
	return &FnToTest{name: name, body: body}
}

// ArgsFmt sets the string for formatting arguments in test error messages, and
// return fn itself.
func (fn *FnToTest) ArgsFmt(s string) *FnToTest {
	fn.argsFmt = s
	return fn
}

// RetsFmt sets the string for formatting return values in test error messages,
// and return fn itself.
func (fn *FnToTest) RetsFmt(s string) *FnToTest {
	fn.retsFmt = s
	return fn
}

// T is the interface for accessing testing.T.
type T interface {
	Helper()
	Errorf(format string, args ...any)
}

// Test tests a function against test cases. The options are passed to
// cmp.Equal and cmp.Diff.
func Test(t T, fn *FnToTest, tests Table, opts ...cmp.Option) {
	t.Helper()
	opts = append(opts, defaultOpts...)
	for _, test := range tests {
		rets := call(fn.body, test.args)
		for _, retsMatcher := range test.retsMatchers {
			if match(retsMatcher, rets, opts) {
				continue
			}
			var argsString string
			if fn.argsFmt == "" {
				argsString = sprintCommaDelimited(test.args...)
			} else {
				argsString = fmt.Sprintf(fn.argsFmt, test.args...)
			}
			var diff string
			if fn.retsFmt == "" {
				diff = cmp.Diff(comparable(retsMatcher, rets), rets, opts...)
			} else {
				diff = fmt.Sprintf("-"+fn.retsFmt+"\n+"+fn.retsFmt+"\n",
					append(append([]any(nil), retsMatcher...), rets...)...)
			}
			t.Errorf("%s(%s) returns (-Wanted +Actual):\n%s", fn.name, argsString, diff)
		}
	}
}

// RetValue is an empty interface used in the Matcher interface.
type RetValue any

// Matcher wraps the Match method.
type Matcher interface {
	// Match reports whether a return value is considered a match. The argument
	// is of type RetValue so that it cannot be implemented accidentally.
	Match(RetValue) bool
}

// Any is a Matcher that matches any value.
var Any Matcher = anyMatcher{}

type anyMatcher struct{}

func (anyMatcher) Match(RetValue) bool { return true }

func (anyMatcher) String() string { return "<any>" }

// ErrorIs returns a Matcher that matches errors for which errors.Is(err,
// target) holds. A nil target matches only a nil error.
func ErrorIs(target error) Matcher { return errorIsMatcher{target} }

type errorIsMatcher struct{ target error }

func (m errorIsMatcher) Match(v RetValue) bool {
	err, _ := v.(error)
	if m.target == nil {
		return err == nil
	}
	return errors.Is(err, m.target)
}

func (m errorIsMatcher) String() string { return fmt.Sprintf("<error is %v>", m.target) }

func match(matchers, actual []any, opts []cmp.Option) bool {
	for i, matcher := range matchers {
		if m, ok := matcher.(Matcher); ok {
			if !m.Match(actual[i]) {
				return false
			}
		} else if !cmp.Equal(matcher, actual[i], opts...) {
			return false
		}
	}
	return true
}

// Replaces the matched Matchers with the actual values, so that the diff only
// shows the values that really differ.
func comparable(matchers, actual []any) []any {
	want := make([]any, len(matchers))
	for i, matcher := range matchers {
		if m, ok := matcher.(Matcher); ok && m.Match(actual[i]) {
			want[i] = actual[i]
		} else {
			want[i] = matcher
		}
	}
	return want
}

func sprintCommaDelimited(args ...any) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, arg)
	}
	return b.String()
}

func call(fn any, args []any) []any {
	argsReflect := make([]reflect.Value, len(args))
	fnType := reflect.TypeOf(fn)
	for i, arg := range args {
		if arg == nil {
			// reflect.ValueOf(nil) returns a zero Value; use a zero value of
			// the parameter type instead.
			var t reflect.Type
			if fnType.IsVariadic() && i >= fnType.NumIn()-1 {
				t = fnType.In(fnType.NumIn() - 1).Elem()
			} else {
				t = fnType.In(i)
			}
			argsReflect[i] = reflect.Zero(t)
		} else {
			argsReflect[i] = reflect.ValueOf(arg)
		}
	}
	retsReflect := reflect.ValueOf(fn).Call(argsReflect)
	rets := make([]any, len(retsReflect))
	for i, retReflect := range retsReflect {
		rets[i] = retReflect.Interface()
	}
	return rets
}
