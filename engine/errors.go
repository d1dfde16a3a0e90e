package engine

import (
	"errors"
	"fmt"
)

// Kind identifies a validation failure. All kinds are deterministic input
// errors surfaced synchronously to the caller; none are retried.
type Kind int

const (
	InvalidScale Kind = iota
	NonNumericOption
	FormNotFound
	FormLocked
	AuthRequired
	MissingRequiredAnswer
	UnknownQuestion
	InvalidOption
	NoOptionsDefined
	TooManyChoices
	OutOfScale
	InvalidDate
	InvalidDateTime
)

// Error is a validation failure with enough context to display a user-facing
// message.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the validation kind from err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// ErrNotFound is returned by Store implementations for missing rows.
var ErrNotFound = errors.New("not found")
