package native

import "unsafe"

// HasErrorStack reports whether the library speaks the error stack protocol.
func (v *VTable) HasErrorStack() bool {
	return v.f.GetErrorStack != nil
}

// ErrorStack drains the native diagnostic messages for the last failed call
// on this thread. The messages are copied into Go strings and the native
// array is released exactly once, whatever its depth. A library without the
// protocol yields an empty stack and StatusSuccess.
func (v *VTable) ErrorStack() ([]string, Status) {
	if !v.HasErrorStack() {
		return nil, StatusSuccess
	}

	var (
		stack **byte
		depth int32
	)
	if status := Status(v.f.GetErrorStack(&stack, &depth)); status != StatusSuccess {
		return nil, status
	}
	defer v.f.FreeErrorStack(stack)

	return copyStrings(stack, int(depth)), StatusSuccess
}

// copyStrings copies n C strings out of the char* array at base.
func copyStrings(base **byte, n int) []string {
	if base == nil || n <= 0 {
		return nil
	}
	entries := unsafe.Slice(base, n)
	out := make([]string, n)
	for i, p := range entries {
		out[i] = GoString(p)
	}
	return out
}
