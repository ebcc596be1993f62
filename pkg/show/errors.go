package show

import (
	"errors"
	"fmt"

	"github.com/kjkrol/goshow/internal/platform"
)

var (
	// ErrWindowDestroyed is returned by operations on a destroyed window.
	ErrWindowDestroyed = errors.New("window destroyed")
	// ErrUnknownBackend is returned when no backend is registered under the requested name.
	ErrUnknownBackend = platform.ErrUnknownBackend
	// ErrContextExpired is the panic value of SpawnTask on a context whose
	// dispatch pass already finished.
	ErrContextExpired = errors.New("event handler context used after dispatch")
)

// UsageError reports a wrong command line.
type UsageError struct {
	Program string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s IMAGE", e.Program)
}

// DecodeError reports image bytes that could not be turned into a
// displayable buffer. Path is empty for in-memory images.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to convert image: %v", e.Err)
	}
	return fmt.Sprintf("failed to read image from %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// BackendError reports a failure of the native window or event system.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendError(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}
