package cobra

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lexiqai/cobra-go/internal/native"
	"github.com/lexiqai/cobra-go/internal/platform"
)

// loadVTable opens the engine library and binds its symbols. On failure
// nothing stays mapped.
func loadVTable(o *options) (*native.VTable, error) {
	path, err := libraryPath(o)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, argumentError(fmt.Sprintf("library not found at %q", path), err)
	}
	if fi.IsDir() {
		return nil, argumentError(fmt.Sprintf("library path %q is a directory", path), nil)
	}

	lib, err := o.open(path)
	if err != nil {
		return nil, loadError(fmt.Sprintf("failed to open library %q", path), err)
	}

	vt, err := o.resolve(lib)
	if err != nil {
		_ = lib.Close()
		return nil, loadError("failed to bind library symbols", err)
	}
	return vt, nil
}

func libraryPath(o *options) (string, error) {
	if o.libraryPath != "" {
		return o.libraryPath, nil
	}

	host := platform.Current()
	host.Logger = o.logger
	rel, err := platform.Resolve(host)
	if err != nil {
		return "", loadError("failed to select a library for this platform", err)
	}

	dir := o.libraryDir
	if dir == "" {
		dir = platform.LibraryDir()
	}
	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}
