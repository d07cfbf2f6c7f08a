package snapshot

import "errors"

// Snapshot validation failures. Compatibility checks are mandatory and
// surface as one of these before any target mutation; the trailing checksum
// is advisory only and never blocks a restore.
var (
	// ErrCorruptStream indicates a bad magic value or a truncated stream.
	ErrCorruptStream = errors.New("snapshot: corrupt or foreign file")
	// ErrUnsupportedVersion indicates the stream was written by a newer
	// format version than this build knows.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrMissingCapability indicates the manifest names features absent
	// from the running coordinator.
	ErrMissingCapability = errors.New("snapshot: missing capability")
	// ErrVersionMismatch indicates a subsystem too old to read its blob.
	ErrVersionMismatch = errors.New("snapshot: subsystem too old to read this snapshot")
)
