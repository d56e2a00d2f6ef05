package cobra

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexiqai/cobra-go/internal/native"
)

// Option configures New.
type Option func(*options)

type options struct {
	libraryPath string
	libraryDir  string
	logger      zerolog.Logger

	// open and resolve are replaced by tests with a stub native layer.
	open    func(path string) (native.Library, error)
	resolve func(lib native.Library) (*native.VTable, error)
}

func defaultOptions() *options {
	return &options{
		logger:  log.Logger,
		open:    native.Open,
		resolve: native.Resolve,
	}
}

// WithLibraryPath loads the engine from an explicit file instead of the
// bundled artifact for the running platform.
func WithLibraryPath(path string) Option {
	return func(o *options) {
		o.libraryPath = path
	}
}

// WithLibraryDir sets the directory holding the per-platform library tree.
// Ignored when WithLibraryPath is given.
func WithLibraryDir(dir string) Option {
	return func(o *options) {
		o.libraryDir = dir
	}
}

// WithLogger sets the logger for the platform fallback warning, the only
// message the binding emits.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
