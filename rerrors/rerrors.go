// Package rerrors defines the small set of error kinds named in
// spec.md §7, so callers can distinguish "fails construction", "fails
// the call but the session continues", and "ends the session" without
// parsing error strings.
package rerrors

import "errors"

// Kind categorizes an error per spec.md §7.
type Kind string

const (
	// ConfigInvalid fails construction (e.g. cache_size < 1).
	ConfigInvalid Kind = "CONFIG_INVALID"
	// ArgInvalid fails the offending call only; the session continues.
	ArgInvalid Kind = "ARG_INVALID"
	// StreamBroken ends the session; surfaced via Client.Run's return.
	StreamBroken Kind = "STREAM_BROKEN"
	// StreamEmptyPop is returned by a single-item pop on an empty cache.
	StreamEmptyPop Kind = "STREAM_EMPTY_POP"
	// ClassifierUnknownCode marks a classification code absent from the
	// session's class map; treated as not strand-like, logged at debug.
	ClassifierUnknownCode Kind = "CLASSIFIER_UNKNOWN_CODE"
	// Deadline marks normal termination when run_time elapses.
	Deadline Kind = "DEADLINE"
)

// Error carries a Kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error from a message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// Wrap tags an existing error with a Kind. Returns nil if err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
