// Package diag contains the error taxonomy shared by the tokenizer, the line
// parser, the binder and the registry, and utilities for showing errors.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind uint8

// Possible values for Kind.
const (
	Unknown Kind = iota
	// An unterminated quote.
	TokenizeError
	// An option token names no visible option.
	UnknownOption
	// A long option prefix matches more than one option.
	AmbiguousOption
	// An option that takes a value is the last token and carries no "=".
	MissingValue
	// A positional token cannot be bound to any argument.
	UnexpectedArgument
	// The token after a group command names none of its children.
	ChildNotFound
	// The first word of a segment names no command.
	UnknownCommand
	// A required option or argument was not given. Recorded while parsing
	// and surfaced only when binding with validation.
	RequiredMissing
	// A converter rejected a value.
	Conversion
	// An option or command validator rejected the bound values.
	Validation
	// A command or option was used while its activator denies it.
	Activation
	// An alias would shadow a live command or a command alias.
	AliasConflict
	// A grammar is malformed.
	GrammarDefinition
)

var kindNames = [...]string{
	Unknown:            "error",
	TokenizeError:      "tokenize error",
	UnknownOption:      "unknown option",
	AmbiguousOption:    "ambiguous option",
	MissingValue:       "missing value",
	UnexpectedArgument: "unexpected argument",
	ChildNotFound:      "child not found",
	UnknownCommand:     "command not found",
	RequiredMissing:    "required missing",
	Conversion:         "conversion error",
	Validation:         "validation error",
	Activation:         "activation error",
	AliasConflict:      "alias conflict",
	GrammarDefinition:  "grammar definition error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// NotActivated is the message of every Activation error. It is fixed so that
// users can tell it apart from "command not found".
const NotActivated = "the command is not available in the current context"

// Error is the error type of this module. Its Kind carries the taxonomy; the
// remaining fields are payload.
type Error struct {
	Kind    Kind
	Message string
	// The option, argument, child, command or alias the error is about.
	Name string
	// Position within the segment being processed, when known.
	Ranging
	// Set for tokenize errors caused by input ending inside a quote.
	Partial bool
	// Close matches for Name, when there are any.
	Suggestions []string
	// Underlying cause, for errors from converters and validators.
	Err error
}

// Errorf builds an Error of the given kind about name.
func Errorf(k Kind, name, format string, args ...any) *Error {
	return &Error{Kind: k, Name: name, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind that wraps err.
func Wrap(k Kind, name string, err error) *Error {
	return &Error{Kind: k, Name: name, Message: err.Error(), Err: err}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if len(e.Suggestions) > 0 {
		sb.WriteString(" (did you mean ")
		for i, s := range e.Suggestions {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s)
		}
		sb.WriteString("?)")
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error sentinel of the same Kind. Only
// sentinels (errors with an empty Message) match by kind, so that
// errors.Is(err, diag.ErrUnknownOption) works without comparing payloads.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return t.Kind == e.Kind
}

// WithRange returns the error after setting its range.
func (e *Error) WithRange(r Ranger) *Error {
	e.Ranging = r.Range()
	return e
}

// Sentinels for use with errors.Is.
var (
	ErrTokenize           = &Error{Kind: TokenizeError}
	ErrUnknownOption      = &Error{Kind: UnknownOption}
	ErrAmbiguousOption    = &Error{Kind: AmbiguousOption}
	ErrMissingValue       = &Error{Kind: MissingValue}
	ErrUnexpectedArgument = &Error{Kind: UnexpectedArgument}
	ErrChildNotFound      = &Error{Kind: ChildNotFound}
	ErrUnknownCommand     = &Error{Kind: UnknownCommand}
	ErrRequiredMissing    = &Error{Kind: RequiredMissing}
	ErrConversion         = &Error{Kind: Conversion}
	ErrValidation         = &Error{Kind: Validation}
	ErrActivation         = &Error{Kind: Activation}
	ErrAliasConflict      = &Error{Kind: AliasConflict}
	ErrGrammarDefinition  = &Error{Kind: GrammarDefinition}
)

// KindOf returns the Kind of the first *Error in err's tree, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsPartial reports whether err is an *Error caused by incomplete input, like
// an unterminated quote.
func IsPartial(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Partial
}
