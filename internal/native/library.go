// Package native maps the Cobra dynamic library into the process and binds
// its C entry points to Go functions.
package native

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrMissingSymbol is wrapped by SymbolError when a required export is absent.
	ErrMissingSymbol = errors.New("symbol not found")

	// ErrNullString is returned when the library hands back a NULL char pointer.
	ErrNullString = errors.New("native library returned a null string")

	// ErrInvalidUTF8 is returned when a native string is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("native string is not valid UTF-8")
)

// Library is a dynamic library mapped into the process. Addresses returned by
// Lookup are valid until Close.
type Library interface {
	Lookup(name string) (uintptr, error)
	Close() error
}

// SymbolError names the export that could not be bound.
type SymbolError struct {
	Name string
	Err  error
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("failed to resolve symbol %q: %v", e.Name, e.Err)
}

func (e *SymbolError) Unwrap() error {
	return e.Err
}

// GoString copies a NUL-terminated C string into Go memory.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
