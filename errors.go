package cobra

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why an operation failed. Callers should branch on the
// kind rather than on message text.
type ErrorKind int

const (
	// KindArgument is invalid caller input, detected before any native call.
	KindArgument ErrorKind = iota + 1
	// KindLibraryLoad covers opening the library, binding its symbols and
	// native contract violations during construction.
	KindLibraryLoad
	// KindLibrary is a non-success status returned by the engine.
	KindLibrary
	// KindFrameLength is a frame whose length differs from FrameLength.
	KindFrameLength
)

func (k ErrorKind) String() string {
	switch k {
	case KindArgument:
		return "argument"
	case KindLibraryLoad:
		return "library load"
	case KindLibrary:
		return "library"
	case KindFrameLength:
		return "frame length"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrArgument    = errors.New("cobra: invalid argument")
	ErrLibraryLoad = errors.New("cobra: failed to load library")
	ErrLibrary     = errors.New("cobra: engine error")
	ErrFrameLength = errors.New("cobra: invalid frame length")

	// ErrClosed is wrapped by the ArgumentError returned when a fully
	// released handle is used.
	ErrClosed = errors.New("cobra: handle is closed")
)

// Error is returned by every fallible operation in this package.
type Error struct {
	Kind ErrorKind

	// Status is the native status code. Only set for KindLibrary.
	Status Status

	Message string

	// MessageStack holds the engine's diagnostic messages for the failed
	// call, oldest first. Empty when the library has no error stack.
	MessageStack []string

	// Expected and Actual are the frame lengths of a KindFrameLength error.
	Expected int
	Actual   int

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("cobra: ")
	b.WriteString(e.Message)

	switch e.Kind {
	case KindLibrary:
		b.WriteString(": ")
		b.WriteString(e.Status.String())
	case KindFrameLength:
		fmt.Fprintf(&b, ": got %d samples, want %d", e.Actual, e.Expected)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	for i, m := range e.MessageStack {
		fmt.Fprintf(&b, "; [%d] %s", i, m)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrArgument:
		return e.Kind == KindArgument
	case ErrLibraryLoad:
		return e.Kind == KindLibraryLoad
	case ErrLibrary:
		return e.Kind == KindLibrary
	case ErrFrameLength:
		return e.Kind == KindFrameLength
	}
	return false
}

func argumentError(msg string, err error) *Error {
	return &Error{Kind: KindArgument, Message: msg, Err: err}
}

func loadError(msg string, err error) *Error {
	return &Error{Kind: KindLibraryLoad, Message: msg, Err: err}
}
