// internal/generation/errors.go
package generation

import (
	"errors"
	"fmt"
)

// Category is a string type used for structured failure reporting from the
// generation pipeline. Using a custom type ensures that only predefined
// constants can be used where a Category is expected.
type Category string

// Every failure the pipeline can report maps to exactly one category. The
// constant values double as the user-facing prefix of the diagnostic line.
const (
	// LaunchFailure covers the browser process or page failing to start.
	LaunchFailure Category = "LaunchFailure"
	// LoadTimeout covers the bootstrap phase: the library script never became
	// callable within the load budget, including an unreachable script URL.
	LoadTimeout Category = "LoadTimeout"
	// TriggerFailure covers a synchronous throw while invoking the in-page
	// driver function.
	TriggerFailure Category = "TriggerFailure"
	// GenerationTimeout covers the poller exhausting the generation budget
	// without the page reaching a terminal state.
	GenerationTimeout Category = "GenerationTimeout"
	// GenerationError carries the error message the page recorded in its
	// error slot.
	GenerationError Category = "GenerationError"
	// EmptyResult covers a terminal page state with nothing in the data slot.
	EmptyResult Category = "EmptyResult"
	// UnknownResultFormat covers a data slot value that is neither a data URL
	// nor an http(s) URL, and malformed data-URL payloads.
	UnknownResultFormat Category = "UnknownResultFormat"
	// FetchFailure covers the in-page fetch of a URL-classified result.
	FetchFailure Category = "FetchFailure"
	// WriteFailure covers any filesystem error while persisting the image.
	WriteFailure Category = "WriteFailure"
)

// Error is a categorized pipeline failure. Consumers classify failures with
// errors.As instead of string matching; the rendered form is the one-line
// diagnostic shown to the user.
type Error struct {
	Category Category
	Message  string
	Err      error
}

// Error implements the error interface as "<Category>: <message>".
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap provides the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a categorized failure with a formatted message and an
// optional underlying cause.
func NewError(category Category, err error, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	}
}

// CategoryOf returns the category carried by err, or the empty string when
// err is not a pipeline failure.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// failf builds a categorized failure with no underlying cause.
func failf(category Category, format string, args ...any) *Error {
	return NewError(category, nil, format, args...)
}

// wrapf builds a categorized failure preserving the underlying cause.
func wrapf(category Category, err error, format string, args ...any) *Error {
	return NewError(category, err, format, args...)
}
