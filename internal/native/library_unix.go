//go:build darwin || freebsd || linux

package native

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type sharedLibrary struct {
	handle uintptr
}

// Open maps the shared library at path with every symbol bound eagerly.
func Open(path string) (Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	return &sharedLibrary{handle: h}, nil
}

func (l *sharedLibrary) Lookup(name string) (uintptr, error) {
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, ErrMissingSymbol
	}
	return addr, nil
}

func (l *sharedLibrary) Close() error {
	return purego.Dlclose(l.handle)
}

func registerFunc(fptr any, addr uintptr) {
	purego.RegisterFunc(fptr, addr)
}
