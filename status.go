package cobra

import "github.com/lexiqai/cobra-go/internal/native"

// Status is a status code returned by the native engine.
type Status = native.Status

const (
	StatusSuccess                = native.StatusSuccess
	StatusOutOfMemory            = native.StatusOutOfMemory
	StatusIOError                = native.StatusIOError
	StatusInvalidArgument        = native.StatusInvalidArgument
	StatusStopIteration          = native.StatusStopIteration
	StatusKeyError               = native.StatusKeyError
	StatusInvalidState           = native.StatusInvalidState
	StatusRuntimeError           = native.StatusRuntimeError
	StatusActivationError        = native.StatusActivationError
	StatusActivationLimitReached = native.StatusActivationLimitReached
	StatusActivationThrottled    = native.StatusActivationThrottled
	StatusActivationRefused      = native.StatusActivationRefused
)
