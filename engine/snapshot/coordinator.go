package snapshot

import (
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/spaghettifunk/atlas/engine/core"
)

/** @brief A magic number identifying a stream as an atlas snapshot. */
const Magic uint32 = 0x5f41544c // == '_ATL'

// headerSize covers magic, version and the reserved word.
const headerSize = 12

// trailerSize covers the crc32 trailer.
const trailerSize = 4

/** @brief Monotonic snapshot format version. */
type Version int32

const (
	// The original format: header, manifest, path table, blobs.
	VersionBase Version = iota
	// Added the per-subsystem version table after the manifest.
	VersionSubsystemVersions
	// The hierarchy data moved out of the root graph into its own
	// subsystem blob; older streams carry it inline after the root graph.
	VersionHierarchySplit
	// Must be the last one.
	VersionLatest
)

// HierarchyName is the subsystem that legacy streams embed inline.
const HierarchyName = "hierarchy"

var hierarchyHash = core.HashName(HierarchyName)

// Subsystem is a restorable engine system owning one opaque blob in the
// snapshot. Deserialize receives the version read from the stream so the
// subsystem can run its own backward-compatibility branches.
type Subsystem interface {
	Name() string
	Version() int32
	Serialize(w *Writer, paths *PathTable) error
	Deserialize(r *Reader, paths *PathTable, version int32) error
}

// RootGraph is the world graph's serialize/deserialize hook. Its layout is
// opaque to the coordinator.
type RootGraph interface {
	Serialize(w *Writer, paths *PathTable) error
	Deserialize(r *Reader, paths *PathTable) error
}

/**
 * @brief Orchestrates whole-application serialize/deserialize: header
 * validation, capability manifest, per-subsystem version table, path
 * interning and ordered delegation to subsystem-owned blobs.
 */
type Coordinator struct {
	log          core.Logger
	capabilities map[string]bool
	capOrder     []string
	subsystems   []Subsystem
	byHash       map[uint32]Subsystem
}

func NewCoordinator(log core.Logger) *Coordinator {
	return &Coordinator{
		log:          log,
		capabilities: make(map[string]bool),
		byHash:       make(map[uint32]Subsystem),
	}
}

// AddCapability declares an active feature/plugin name. The manifest of
// every serialized snapshot lists them; a restore target missing one of a
// snapshot's names rejects the restore.
func (c *Coordinator) AddCapability(name string) {
	if c.capabilities[name] {
		return
	}
	c.capabilities[name] = true
	c.capOrder = append(c.capOrder, name)
}

// RegisterSubsystem adds a restorable subsystem. Order of registration is
// the order of serialization.
func (c *Coordinator) RegisterSubsystem(s Subsystem) error {
	hash := core.HashName(s.Name())
	if _, exists := c.byHash[hash]; exists {
		return fmt.Errorf("coordinator - subsystem '%s' already registered", s.Name())
	}
	c.subsystems = append(c.subsystems, s)
	c.byHash[hash] = s
	return nil
}

// Serialize writes the whole-application snapshot and returns the stream
// plus the crc32 computed over everything after the header.
func (c *Coordinator) Serialize(root RootGraph) ([]byte, uint32, error) {
	if root == nil {
		return nil, 0, fmt.Errorf("coordinator - Serialize requires a root graph")
	}

	paths := NewPathTable()
	defer paths.Clear()

	// The path table precedes the blobs that reference it, but it is only
	// complete once every blob has interned its paths. Blobs go to a
	// scratch writer first.
	body := NewWriter()
	if err := root.Serialize(body, paths); err != nil {
		return nil, 0, fmt.Errorf("coordinator - root graph serialize: %w", err)
	}
	body.WriteInt32(int32(len(c.subsystems)))
	for _, s := range c.subsystems {
		body.WriteString(s.Name())
		body.WriteInt32(s.Version())
		if err := s.Serialize(body, paths); err != nil {
			return nil, 0, fmt.Errorf("coordinator - subsystem '%s' serialize: %w", s.Name(), err)
		}
	}

	w := NewWriter()
	w.WriteUint32(Magic)
	w.WriteInt32(int32(VersionLatest))
	w.WriteUint32(0) // reserved

	w.WriteInt32(int32(len(c.capOrder)))
	for _, name := range c.capOrder {
		w.WriteString(name)
	}

	w.WriteInt32(int32(len(c.subsystems)))
	for _, s := range c.subsystems {
		w.WriteUint32(core.HashName(s.Name()))
		w.WriteInt32(s.Version())
	}

	paths.write(w)
	w.WriteRaw(body.Bytes())

	crc := crc32.ChecksumIEEE(w.Bytes()[headerSize:])
	w.WriteUint32(crc)

	c.log.Debugf("serialized snapshot: %d bytes, %d subsystems, %d interned paths, crc 0x%08x",
		w.Len(), len(c.subsystems), paths.Len(), crc)

	return w.Bytes(), crc, nil
}

// Deserialize restores a snapshot into root and the registered subsystems.
// Validation is strict and ordered; the root graph is not touched until
// every compatibility check has passed. A checksum mismatch is reported but
// does not block the restore.
func (c *Coordinator) Deserialize(data []byte, root RootGraph) error {
	if root == nil {
		return fmt.Errorf("coordinator - Deserialize requires a root graph")
	}

	r := NewReader(data)

	magic := r.Uint32()
	if r.Err() != nil || magic != Magic {
		return fmt.Errorf("%w: bad magic 0x%08x", ErrCorruptStream, magic)
	}
	version := Version(r.Int32())
	if version > VersionLatest {
		return fmt.Errorf("%w: stream version %d, latest known %d", ErrUnsupportedVersion, version, VersionLatest)
	}
	r.Uint32() // reserved

	c.verifyChecksum(data)

	if err := c.checkManifest(r); err != nil {
		return err
	}

	if version >= VersionSubsystemVersions {
		if err := c.checkSubsystemVersions(r); err != nil {
			return err
		}
	}
	if r.Err() != nil {
		return r.Err()
	}

	// All compatibility checks passed; mutation may begin.
	paths := NewPathTable()
	defer paths.Clear()
	paths.read(r)
	if r.Err() != nil {
		return r.Err()
	}

	if err := root.Deserialize(r, paths); err != nil {
		return fmt.Errorf("coordinator - root graph deserialize: %w", err)
	}

	// Legacy migration shim: old streams embed the hierarchy data inline
	// right after the root graph instead of in the subsystem section.
	if version < VersionHierarchySplit {
		s, ok := c.byHash[hierarchyHash]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingCapability, HierarchyName)
		}
		if err := s.Deserialize(r, paths, 0); err != nil {
			return fmt.Errorf("coordinator - legacy %s deserialize: %w", HierarchyName, err)
		}
	}

	count := r.Int32()
	for i := int32(0); i < count; i++ {
		name := r.String()
		var subVersion int32
		if version >= VersionSubsystemVersions {
			subVersion = r.Int32()
		}
		if r.Err() != nil {
			return r.Err()
		}
		s, ok := c.byHash[core.HashName(name)]
		if !ok {
			return fmt.Errorf("%w: blob for unregistered subsystem '%s'", ErrCorruptStream, name)
		}
		if err := s.Deserialize(r, paths, subVersion); err != nil {
			return fmt.Errorf("coordinator - subsystem '%s' deserialize: %w", name, err)
		}
	}

	return r.Err()
}

func (c *Coordinator) checkManifest(r *Reader) error {
	count := r.Int32()
	var missing []string
	for i := int32(0); i < count && r.Err() == nil; i++ {
		name := r.String()
		if !c.capabilities[name] {
			missing = append(missing, name)
		}
	}
	if r.Err() != nil {
		return r.Err()
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCapability, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Coordinator) checkSubsystemVersions(r *Reader) error {
	count := r.Int32()
	for i := int32(0); i < count && r.Err() == nil; i++ {
		hash := r.Uint32()
		onDisk := r.Int32()
		s, ok := c.byHash[hash]
		if !ok {
			return fmt.Errorf("%w: unknown subsystem hash 0x%08x", ErrVersionMismatch, hash)
		}
		if onDisk > s.Version() {
			return fmt.Errorf("%w: subsystem '%s' has version %d, snapshot needs %d", ErrVersionMismatch, s.Name(), s.Version(), onDisk)
		}
	}
	return r.Err()
}

// verifyChecksum recomputes the trailing crc32. Integrity is advisory: a
// mismatch is logged, never fatal. Compatibility checks are the gate.
func (c *Coordinator) verifyChecksum(data []byte) {
	if len(data) < headerSize+trailerSize {
		return
	}
	stored := NewReader(data[len(data)-trailerSize:]).Uint32()
	computed := crc32.ChecksumIEEE(data[headerSize : len(data)-trailerSize])
	if stored != computed {
		c.log.Warnf("snapshot checksum mismatch: stored 0x%08x, computed 0x%08x; restoring anyway", stored, computed)
	}
}
