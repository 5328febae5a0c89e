package utils

import "errors"

var (
	// ErrNotFound indicates missing entry, task or file
	ErrNotFound = errors.New("not found")
	// ErrNoTranscription indicates summarization attempt before transcription completed
	ErrNoTranscription = errors.New("no transcription")
	// ErrBusy indicates restart attempt while a task is still in flight
	ErrBusy = errors.New("still processing")
)

// ErrProvider wraps a downstream provider call failure
// the entry was flipped to failed, the caller decides how to surface it
type ErrProvider struct {
	err error
}

// NewErrProvider creates new error
func NewErrProvider(err error) error {
	return &ErrProvider{err: err}
}

func (e *ErrProvider) Error() string {
	return "provider error: " + e.err.Error()
}

func (e *ErrProvider) Unwrap() error {
	return e.err
}

// ErrConfig indicates a bad provider configuration, detected at
// adapter construction or settings save time
type ErrConfig struct {
	Msg string
}

// NewErrConfig creates new error
func NewErrConfig(msg string) error {
	return &ErrConfig{Msg: msg}
}

func (e *ErrConfig) Error() string {
	return "configuration error: " + e.Msg
}
