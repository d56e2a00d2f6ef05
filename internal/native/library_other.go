//go:build !darwin && !freebsd && !linux && !windows

package native

import (
	"fmt"
	"runtime"
)

// Open always fails: there is no loader for this operating system.
func Open(path string) (Library, error) {
	return nil, fmt.Errorf("cannot load %s: dynamic loading is not supported on %s", path, runtime.GOOS)
}

func registerFunc(any, uintptr) {
	panic("native: no calling convention support on " + runtime.GOOS)
}
