//go:build windows

package native

import (
	"fmt"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

type dll struct {
	d *windows.DLL
}

// Open loads the DLL at path.
func Open(path string) (Library, error) {
	d, err := windows.LoadDLL(path)
	if err != nil {
		return nil, fmt.Errorf("LoadLibrary %s: %w", path, err)
	}
	return &dll{d: d}, nil
}

func (l *dll) Lookup(name string) (uintptr, error) {
	p, err := l.d.FindProc(name)
	if err != nil {
		return 0, err
	}
	return p.Addr(), nil
}

func (l *dll) Close() error {
	return l.d.Release()
}

func registerFunc(fptr any, addr uintptr) {
	purego.RegisterFunc(fptr, addr)
}
