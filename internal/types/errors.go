package types

import "errors"

// Error taxonomy shared by capture, recording, provider and config code.
// Callers wrap these with context and match them with errors.Is.
var (
	// ErrCapabilityUnavailable is returned when no OS tool for screenshots or recording exists.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrInvalidState is returned when an operation is requested in the wrong state.
	ErrInvalidState = errors.New("invalid state")

	// ErrRecordingFailed is returned when a finished recording is missing or empty.
	ErrRecordingFailed = errors.New("recording failed")

	// ErrProvider is returned for malformed or failed AI responses.
	ErrProvider = errors.New("provider error")

	// ErrUnsupportedOperation is returned when a provider cannot serve a request kind.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrConfigInvalid is returned when a configuration cannot be applied.
	ErrConfigInvalid = errors.New("invalid config")
)
