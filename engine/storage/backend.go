package storage

import "errors"

// ErrNotFound is returned when a path has no backing bytes on the backend.
var ErrNotFound = errors.New("storage: path not found")

// CompletionFunc receives the outcome of an asynchronous read. It is invoked
// on a backend worker goroutine; callers that own single-threaded state must
// queue the result and apply it at their own pump point.
type CompletionFunc func(path string, data []byte, err error)

// Backend turns a path into bytes. Implementations are chainable: a backend
// may answer from its own store or delegate to a fallback.
type Backend interface {
	// ReadSync reads the full contents at path, blocking the caller.
	ReadSync(path string) ([]byte, error)
	// ReadAsync schedules a read and returns immediately. The completion
	// fires exactly once.
	ReadAsync(path string, fn CompletionFunc)
}
