// Package cobra binds the Cobra voice activity detection engine, which ships
// as a platform specific dynamic library.
//
// The library is located and loaded at runtime without cgo. A Cobra handle
// turns frames of 16-bit PCM into the probability that they contain speech:
//
//	c, err := cobra.New(accessKey)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	for frame := range frames { // each exactly c.FrameLength() samples
//		p, err := c.Process(frame)
//		...
//	}
//
// A handle is safe for concurrent use. Clone shares the native engine with
// another owner; the engine is destroyed when the last owner closes.
package cobra

import (
	"runtime"
	"strings"
	"sync/atomic"
)

// Cobra is a reference to a native engine.
type Cobra struct {
	e      *engine
	closed atomic.Bool
}

// New loads the engine library and creates a native engine for accessKey.
// Without WithLibraryPath the library is chosen for the running platform
// from the default library directory.
func New(accessKey string, opts ...Option) (*Cobra, error) {
	if accessKey == "" {
		return nil, argumentError("access key is empty", nil)
	}
	if strings.IndexByte(accessKey, 0) >= 0 {
		return nil, argumentError("access key contains a null byte", nil)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	vt, err := loadVTable(o)
	if err != nil {
		return nil, err
	}
	e, err := newEngine(vt, accessKey)
	if err != nil {
		return nil, err
	}
	return newFacade(e), nil
}

func newFacade(e *engine) *Cobra {
	c := &Cobra{e: e}
	runtime.SetFinalizer(c, (*Cobra).finalize)
	return c
}

// Process returns the probability in [0, 1] that pcm contains voice. pcm
// must hold exactly FrameLength samples at SampleRate.
func (c *Cobra) Process(pcm []int16) (float32, error) {
	if c.closed.Load() {
		return 0, argumentError("process called after close", ErrClosed)
	}
	p, err := c.e.process(pcm)
	runtime.KeepAlive(c)
	return p, err
}

// SampleRate is the audio sample rate the engine expects, in Hz.
func (c *Cobra) SampleRate() int {
	return c.e.sampleRate
}

// FrameLength is the number of samples Process takes per call.
func (c *Cobra) FrameLength() int {
	return c.e.frameLength
}

// Version is the engine version.
func (c *Cobra) Version() string {
	return c.e.version
}

// Clone returns a new reference to the same engine. Each clone must be
// closed independently.
func (c *Cobra) Clone() (*Cobra, error) {
	if c.closed.Load() || !c.e.acquire() {
		return nil, argumentError("clone called after close", ErrClosed)
	}
	runtime.KeepAlive(c)
	return newFacade(c.e), nil
}

// Close releases this reference. Closing the last reference destroys the
// native engine and unloads the library. Further calls are no-ops.
func (c *Cobra) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(c, nil)
	return c.e.release()
}

func (c *Cobra) finalize() {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.e.release()
	}
}
