package snapshot

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/atlas/engine/core"
)

type fakeRoot struct {
	materials []string
	restored  bool
}

func (f *fakeRoot) Serialize(w *Writer, paths *PathTable) error {
	w.WriteInt32(int32(len(f.materials)))
	for _, m := range f.materials {
		w.WriteInt32(paths.Intern(m))
	}
	return nil
}

func (f *fakeRoot) Deserialize(r *Reader, paths *PathTable) error {
	f.restored = true
	count := r.Int32()
	f.materials = f.materials[:0]
	for i := int32(0); i < count; i++ {
		p, err := paths.Path(r.Int32())
		if err != nil {
			return err
		}
		f.materials = append(f.materials, p)
	}
	return r.Err()
}

type fakeSubsystem struct {
	name       string
	version    int32
	values     []int32
	gotVersion int32
	restored   bool
}

func (f *fakeSubsystem) Name() string   { return f.name }
func (f *fakeSubsystem) Version() int32 { return f.version }

func (f *fakeSubsystem) Serialize(w *Writer, _ *PathTable) error {
	w.WriteInt32(int32(len(f.values)))
	for _, v := range f.values {
		w.WriteInt32(v)
	}
	return nil
}

func (f *fakeSubsystem) Deserialize(r *Reader, _ *PathTable, version int32) error {
	f.restored = true
	f.gotVersion = version
	count := r.Int32()
	f.values = f.values[:0]
	for i := int32(0); i < count; i++ {
		f.values = append(f.values, r.Int32())
	}
	return r.Err()
}

func newTestCoordinator(t *testing.T, subs ...Subsystem) *Coordinator {
	t.Helper()
	c := NewCoordinator(core.NewNopLogger())
	c.AddCapability("renderer")
	c.AddCapability("animation")
	for _, s := range subs {
		require.NoError(t, c.RegisterSubsystem(s))
	}
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	hier := &fakeSubsystem{name: HierarchyName, version: 1, values: []int32{10, 20}}
	anim := &fakeSubsystem{name: "animation", version: 3, values: []int32{7}}
	c := newTestCoordinator(t, hier, anim)

	root := &fakeRoot{materials: []string{"materials/a.mat", "materials/b.mat", "materials/a.mat"}}
	stream, crc, err := c.Serialize(root)
	require.NoError(t, err)
	require.NotZero(t, crc)

	hier2 := &fakeSubsystem{name: HierarchyName, version: 1}
	anim2 := &fakeSubsystem{name: "animation", version: 3}
	c2 := newTestCoordinator(t, hier2, anim2)

	restored := &fakeRoot{}
	require.NoError(t, c2.Deserialize(stream, restored))

	assert.Equal(t, root.materials, restored.materials)
	assert.Equal(t, []int32{10, 20}, hier2.values)
	assert.Equal(t, []int32{7}, anim2.values)
	assert.Equal(t, int32(1), hier2.gotVersion)
	assert.Equal(t, int32(3), anim2.gotVersion)
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	c := newTestCoordinator(t)
	stream, _, err := c.Serialize(&fakeRoot{})
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(stream[0:], 0x12345678)
	restored := &fakeRoot{}
	err = c.Deserialize(stream, restored)
	assert.ErrorIs(t, err, ErrCorruptStream)
	assert.False(t, restored.restored)
}

func TestDeserializeRejectsNewerVersion(t *testing.T) {
	c := newTestCoordinator(t)
	stream, _, err := c.Serialize(&fakeRoot{})
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(stream[4:], uint32(VersionLatest)+1)
	restored := &fakeRoot{}
	err = c.Deserialize(stream, restored)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.False(t, restored.restored)
}

func TestDeserializeRejectsMissingCapabilities(t *testing.T) {
	source := NewCoordinator(core.NewNopLogger())
	source.AddCapability("renderer")
	source.AddCapability("particles")
	source.AddCapability("fluids")
	stream, _, err := source.Serialize(&fakeRoot{})
	require.NoError(t, err)

	target := NewCoordinator(core.NewNopLogger())
	target.AddCapability("renderer")

	restored := &fakeRoot{}
	err = target.Deserialize(stream, restored)
	require.ErrorIs(t, err, ErrMissingCapability)
	// Every missing name is enumerated.
	assert.Contains(t, err.Error(), "particles")
	assert.Contains(t, err.Error(), "fluids")
	assert.False(t, restored.restored)
}

func TestDeserializeRejectsTooOldSubsystem(t *testing.T) {
	c := newTestCoordinator(t, &fakeSubsystem{name: "animation", version: 5})
	stream, _, err := c.Serialize(&fakeRoot{})
	require.NoError(t, err)

	old := &fakeSubsystem{name: "animation", version: 3}
	target := newTestCoordinator(t, old)

	restored := &fakeRoot{}
	err = target.Deserialize(stream, restored)
	require.ErrorIs(t, err, ErrVersionMismatch)
	assert.Contains(t, err.Error(), "animation")
	assert.False(t, restored.restored)
	assert.False(t, old.restored)
}

func TestDeserializeRejectsUnknownSubsystem(t *testing.T) {
	c := newTestCoordinator(t, &fakeSubsystem{name: "animation", version: 1})
	stream, _, err := c.Serialize(&fakeRoot{})
	require.NoError(t, err)

	target := newTestCoordinator(t)
	restored := &fakeRoot{}
	err = target.Deserialize(stream, restored)
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.False(t, restored.restored)
}

func TestChecksumMismatchIsAdvisory(t *testing.T) {
	c := newTestCoordinator(t)
	root := &fakeRoot{materials: []string{"materials/a.mat"}}
	stream, _, err := c.Serialize(root)
	require.NoError(t, err)

	// Corrupt the stored checksum; compatibility checks still pass and the
	// restore proceeds.
	stream[len(stream)-1] ^= 0xff
	restored := &fakeRoot{}
	require.NoError(t, c.Deserialize(stream, restored))
	assert.Equal(t, root.materials, restored.materials)
}

// A stream written before the hierarchy split carries the hierarchy blob
// inline after the root graph, with no per-blob entry for it.
func TestLegacyInlineHierarchyShim(t *testing.T) {
	w := NewWriter()
	w.WriteUint32(Magic)
	w.WriteInt32(int32(VersionSubsystemVersions))
	w.WriteUint32(0)         // reserved
	w.WriteInt32(1)          // manifest
	w.WriteString("renderer")
	w.WriteInt32(1) // version table
	w.WriteUint32(core.HashName(HierarchyName))
	w.WriteInt32(0)
	w.WriteInt32(0) // path table
	w.WriteInt32(0) // root graph: no materials
	// Inline hierarchy blob at its fixed legacy position.
	w.WriteInt32(2)
	w.WriteInt32(40)
	w.WriteInt32(50)
	w.WriteInt32(0) // no subsystem blobs
	crc := crc32.ChecksumIEEE(w.Bytes()[headerSize:])
	w.WriteUint32(crc)

	hier := &fakeSubsystem{name: HierarchyName, version: 1}
	c := newTestCoordinator(t, hier)

	restored := &fakeRoot{}
	require.NoError(t, c.Deserialize(w.Bytes(), restored))
	assert.True(t, restored.restored)
	assert.True(t, hier.restored)
	assert.Equal(t, int32(0), hier.gotVersion)
	assert.Equal(t, []int32{40, 50}, hier.values)
}

func TestSerializeRequiresRoot(t *testing.T) {
	c := newTestCoordinator(t)
	_, _, err := c.Serialize(nil)
	assert.Error(t, err)
	assert.Error(t, c.Deserialize(nil, nil))
}
