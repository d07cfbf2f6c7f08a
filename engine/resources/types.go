package resources

import (
	"errors"

	"github.com/spaghettifunk/atlas/engine/core"
)

/** @brief Stable identifier for a resource type, the hash of its type name. */
type TypeID uint32

func TypeIDFor(name string) TypeID {
	return TypeID(core.HashName(name))
}

/** @brief The lifecycle state of a resource. */
type State int

const (
	/** @brief Created but no read issued yet. */
	StateEmpty State = iota
	/** @brief A read is in flight or dependencies are still pending. */
	StateLoading
	/** @brief Decoded and every dependency is ready. */
	StateReady
	/** @brief Read, decode or a dependency failed. */
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Failure taxonomy. A resource's Failure() always wraps exactly one of
// these. Failures are local to the resource; the registry never aborts.
var (
	// ErrNotFound indicates the path has no backing bytes.
	ErrNotFound = errors.New("resource not found")
	// ErrRead indicates the backing bytes exist but could not be read,
	// e.g. a permission or I/O failure.
	ErrRead = errors.New("resource read failed")
	// ErrDecode indicates bytes were present but malformed for the type.
	// Dependency cycles are reported as decode failures on every member.
	ErrDecode = errors.New("resource decode failed")
	// ErrDependencyFailed is propagated upward from a failed child.
	ErrDependencyFailed = errors.New("resource dependency failed")
)

// Decoder turns raw bytes into a resource's in-memory payload. Decode runs
// on the owning goroutine during a pump; it may load further resources
// through the manager and attach them with AddDependency.
type Decoder interface {
	// TypeName is the stable name this decoder handles, e.g. "material".
	TypeName() string
	Decode(m *Manager, r *Resource, data []byte) error
}
