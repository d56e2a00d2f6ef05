package native

import (
	"io"
	"runtime"
	"unicode/utf8"
)

// Exported names of the Cobra C API.
const (
	SymInit           = "pv_cobra_init"
	SymDelete         = "pv_cobra_delete"
	SymProcess        = "pv_cobra_process"
	SymSampleRate     = "pv_sample_rate"
	SymFrameLength    = "pv_cobra_frame_length"
	SymVersion        = "pv_cobra_version"
	SymSetSDK         = "pv_set_sdk"
	SymGetErrorStack  = "pv_get_error_stack"
	SymFreeErrorStack = "pv_free_error_stack"
	SymStatusToString = "pv_status_to_string"
)

// Funcs holds the Cobra entry points as Go functions. The first six are
// mandatory; the rest belong to later protocol revisions and may be nil.
type Funcs struct {
	Init        func(accessKey string, object *uintptr) int32
	Delete      func(object uintptr)
	Process     func(object uintptr, pcm *int16, isVoiced *float32) int32
	SampleRate  func() int32
	FrameLength func() int32
	Version     func() *byte

	SetSDK         func(sdk string)
	GetErrorStack  func(messageStack ***byte, depth *int32) int32
	FreeErrorStack func(messageStack **byte)
	StatusToString func(status int32) *byte
}

// VTable is a complete set of bound entry points together with the library
// that provides them. Closing the table unmaps the library, so no function
// may be called afterwards.
type VTable struct {
	f   Funcs
	lib io.Closer
}

// Resolve binds every Cobra export from lib. Resolution stops at the first
// missing mandatory symbol; lib is left open for the caller to close.
func Resolve(lib Library) (*VTable, error) {
	var f Funcs

	mandatory := []struct {
		name string
		fptr any
	}{
		{SymInit, &f.Init},
		{SymDelete, &f.Delete},
		{SymProcess, &f.Process},
		{SymSampleRate, &f.SampleRate},
		{SymFrameLength, &f.FrameLength},
		{SymVersion, &f.Version},
	}
	for _, sym := range mandatory {
		addr, err := lib.Lookup(sym.name)
		if err != nil {
			return nil, &SymbolError{Name: sym.name, Err: err}
		}
		registerFunc(sym.fptr, addr)
	}

	optional := []struct {
		name string
		fptr any
	}{
		{SymSetSDK, &f.SetSDK},
		{SymGetErrorStack, &f.GetErrorStack},
		{SymFreeErrorStack, &f.FreeErrorStack},
		{SymStatusToString, &f.StatusToString},
	}
	for _, sym := range optional {
		if addr, err := lib.Lookup(sym.name); err == nil {
			registerFunc(sym.fptr, addr)
		}
	}

	return New(f, lib)
}

// New builds a table from already bound functions. It fails, naming the
// first missing function, unless every mandatory entry is set and the error
// stack pair is either complete or absent. lib may be nil.
func New(f Funcs, lib io.Closer) (*VTable, error) {
	required := []struct {
		name    string
		present bool
	}{
		{SymInit, f.Init != nil},
		{SymDelete, f.Delete != nil},
		{SymProcess, f.Process != nil},
		{SymSampleRate, f.SampleRate != nil},
		{SymFrameLength, f.FrameLength != nil},
		{SymVersion, f.Version != nil},
	}
	for _, r := range required {
		if !r.present {
			return nil, &SymbolError{Name: r.name, Err: ErrMissingSymbol}
		}
	}

	switch {
	case f.GetErrorStack != nil && f.FreeErrorStack == nil:
		return nil, &SymbolError{Name: SymFreeErrorStack, Err: ErrMissingSymbol}
	case f.GetErrorStack == nil && f.FreeErrorStack != nil:
		return nil, &SymbolError{Name: SymGetErrorStack, Err: ErrMissingSymbol}
	}

	return &VTable{f: f, lib: lib}, nil
}

// SetSDK reports the binding name to the library when it supports it.
func (v *VTable) SetSDK(name string) {
	if v.f.SetSDK != nil {
		v.f.SetSDK(name)
	}
}

// Init constructs a native engine. The handle is only meaningful when the
// status is StatusSuccess.
func (v *VTable) Init(accessKey string) (uintptr, Status) {
	var object uintptr
	status := Status(v.f.Init(accessKey, &object))
	return object, status
}

// Delete destroys a native engine.
func (v *VTable) Delete(object uintptr) {
	v.f.Delete(object)
}

// Process runs one frame through the engine. pcm must not be empty.
func (v *VTable) Process(object uintptr, pcm []int16) (float32, Status) {
	var isVoiced float32
	status := Status(v.f.Process(object, &pcm[0], &isVoiced))
	runtime.KeepAlive(pcm)
	if status != StatusSuccess {
		return 0, status
	}
	return isVoiced, status
}

func (v *VTable) SampleRate() int32 {
	return v.f.SampleRate()
}

func (v *VTable) FrameLength() int32 {
	return v.f.FrameLength()
}

// Version returns the engine version string.
func (v *VTable) Version() (string, error) {
	p := v.f.Version()
	if p == nil {
		return "", ErrNullString
	}
	s := GoString(p)
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}
	return s, nil
}

// StatusString asks the library to describe status. It returns "" when the
// library does not export a status formatter.
func (v *VTable) StatusString(status Status) string {
	if v.f.StatusToString == nil {
		return ""
	}
	return GoString(v.f.StatusToString(int32(status)))
}

// Close unmaps the library.
func (v *VTable) Close() error {
	if v.lib == nil {
		return nil
	}
	return v.lib.Close()
}
