package irdoc

import "fmt"

// Error reports a document that does not describe a valid tree.
type Error struct {
	// Path locates the offending element, e.g. "root.lambda.body.add[1]".
	Path string

	// Message is a human-readable description.
	Message string

	// Err is the construction error that rejected the element, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(path, format string, args ...any) *Error {
	return &Error{Path: path, Message: fmt.Sprintf(format, args...)}
}
