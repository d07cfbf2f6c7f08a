package snapshot

import "fmt"

// PathTable interns asset paths for the duration of a single serialize or
// deserialize call. Paths referenced in multiple blobs are stored once and
// referenced by index downstream. Never persisted as process state.
type PathTable struct {
	paths []string
	index map[string]int32
}

func NewPathTable() *PathTable {
	return &PathTable{
		index: make(map[string]int32),
	}
}

// Intern returns the stable index for path, adding it on first use.
func (pt *PathTable) Intern(path string) int32 {
	if idx, ok := pt.index[path]; ok {
		return idx
	}
	idx := int32(len(pt.paths))
	pt.paths = append(pt.paths, path)
	pt.index[path] = idx
	return idx
}

// Path resolves an interned index read back from a stream.
func (pt *PathTable) Path(idx int32) (string, error) {
	if idx < 0 || int(idx) >= len(pt.paths) {
		return "", fmt.Errorf("%w: path index %d out of range (%d entries)", ErrCorruptStream, idx, len(pt.paths))
	}
	return pt.paths[idx], nil
}

func (pt *PathTable) Len() int {
	return len(pt.paths)
}

// Clear drops all entries; the table is scoped to one coordinator call.
func (pt *PathTable) Clear() {
	pt.paths = pt.paths[:0]
	pt.index = make(map[string]int32)
}

func (pt *PathTable) write(w *Writer) {
	w.WriteInt32(int32(len(pt.paths)))
	for _, p := range pt.paths {
		w.WriteString(p)
	}
}

func (pt *PathTable) read(r *Reader) {
	count := r.Int32()
	for i := int32(0); i < count && r.Err() == nil; i++ {
		p := r.String()
		idx := int32(len(pt.paths))
		pt.paths = append(pt.paths, p)
		pt.index[p] = idx
	}
}
