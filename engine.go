package cobra

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/lexiqai/cobra-go/internal/native"
)

const sdkName = "go"

// engine owns one native Cobra object and the library it came from. It is
// shared by every facade cloned from the same New call.
type engine struct {
	vt *native.VTable

	sampleRate  int
	frameLength int
	version     string

	// mu guards handle and refs. Process holds it shared so teardown waits
	// for in-flight native calls.
	mu     sync.RWMutex
	handle uintptr
	refs   int
}

// newEngine constructs the native object. It takes ownership of vt: on
// failure the library is closed before returning.
func newEngine(vt *native.VTable, accessKey string) (*engine, error) {
	handle, err := initNative(vt, accessKey)
	if err != nil {
		_ = vt.Close()
		return nil, err
	}

	e := &engine{vt: vt, handle: handle, refs: 1}
	if err := e.loadProperties(); err != nil {
		vt.Delete(handle)
		_ = vt.Close()
		return nil, err
	}
	return e, nil
}

func initNative(vt *native.VTable, accessKey string) (uintptr, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	vt.SetSDK(sdkName)

	handle, status := vt.Init(accessKey)
	if err := check(vt, status, "initialization failed"); err != nil {
		return 0, err
	}
	if handle == 0 {
		return 0, loadError("initialization returned a null engine", nil)
	}
	return handle, nil
}

func (e *engine) loadProperties() error {
	sampleRate := e.vt.SampleRate()
	if sampleRate <= 0 {
		return loadError(fmt.Sprintf("invalid sample rate %d", sampleRate), nil)
	}
	frameLength := e.vt.FrameLength()
	if frameLength <= 0 {
		return loadError(fmt.Sprintf("invalid frame length %d", frameLength), nil)
	}
	version, err := e.vt.Version()
	if err != nil {
		return loadError("invalid version string", err)
	}
	if version == "" {
		return loadError("empty version string", nil)
	}

	e.sampleRate = int(sampleRate)
	e.frameLength = int(frameLength)
	e.version = version
	return nil
}

// check turns a native status into an error, draining the error stack. The
// caller must still be on the thread that made the failing call.
func check(vt *native.VTable, status Status, message string) error {
	if status == StatusSuccess {
		return nil
	}
	if !status.Known() {
		if s := vt.StatusString(status); s != "" {
			message += " (" + s + ")"
		}
	}

	stack, stackStatus := vt.ErrorStack()
	if stackStatus != StatusSuccess {
		return &Error{
			Kind:    KindLibrary,
			Status:  stackStatus,
			Message: "unable to get Cobra error state",
			Err:     &Error{Kind: KindLibrary, Status: status, Message: message},
		}
	}
	return &Error{
		Kind:         KindLibrary,
		Status:       status,
		Message:      message,
		MessageStack: stack,
	}
}

func (e *engine) process(pcm []int16) (float32, error) {
	if len(pcm) != e.frameLength {
		return 0, &Error{
			Kind:     KindFrameLength,
			Message:  "invalid frame length",
			Expected: e.frameLength,
			Actual:   len(pcm),
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.handle == 0 {
		return 0, argumentError("process called after close", ErrClosed)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	p, status := e.vt.Process(e.handle, pcm)
	if err := check(e.vt, status, "processing failed"); err != nil {
		return 0, err
	}
	return p, nil
}

// acquire adds a reference. It fails once the native object is gone.
func (e *engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle == 0 {
		return false
	}
	e.refs++
	return true
}

// release drops a reference and destroys the engine with the last one.
func (e *engine) release() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.refs--
	if e.refs > 0 {
		return nil
	}
	return e.destroyLocked()
}

func (e *engine) destroyLocked() error {
	if e.handle == 0 {
		return nil
	}
	e.vt.Delete(e.handle)
	e.handle = 0

	if err := e.vt.Close(); err != nil {
		return loadError("failed to unload library", err)
	}
	return nil
}
