package resources

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/atlas/engine/containers"
	"github.com/spaghettifunk/atlas/engine/core"
	"github.com/spaghettifunk/atlas/engine/storage"
)

// completion is the outcome of an asynchronous read, queued by a backend
// worker and applied on the owning goroutine at the next pump.
type completion struct {
	res  *Resource
	data []byte
	err  error
}

/**
 * @brief A per-type table mapping path to resource, providing de-duplicated
 * load/unload and the eviction sweep. All mutation happens on the single
 * owning goroutine; only the completion queue is shared with workers.
 */
type Registry struct {
	typeName string
	typeID   TypeID
	decoder  Decoder
	backend  storage.Backend
	log      core.Logger
	manager  *Manager

	table map[string]*Resource

	completionMutex sync.Mutex
	completions     *containers.RingQueue[completion]
}

func NewRegistry(decoder Decoder, backend storage.Backend, log core.Logger) *Registry {
	return &Registry{
		typeName:    decoder.TypeName(),
		typeID:      TypeIDFor(decoder.TypeName()),
		decoder:     decoder,
		backend:     backend,
		log:         log,
		table:       make(map[string]*Resource),
		completions: containers.NewRingQueue[completion](64),
	}
}

func (rg *Registry) TypeName() string {
	return rg.typeName
}

func (rg *Registry) TypeID() TypeID {
	return rg.typeID
}

// Load returns the resource cached under path, creating it and issuing an
// asynchronous read on first use. Every call increments the reference count
// and must be balanced by an Unload. Never blocks.
func (rg *Registry) Load(path string) (*Resource, error) {
	if path == "" {
		return nil, fmt.Errorf("registry %s - Load requires a non-empty path", rg.typeName)
	}
	if r, ok := rg.table[path]; ok {
		r.refCount++
		return r, nil
	}

	r := &Resource{
		Path:       path,
		TypeID:     rg.typeID,
		InstanceID: uuid.New(),
		registry:   rg,
		state:      StateEmpty,
		refCount:   1,
	}
	rg.table[path] = r

	r.state = StateLoading
	rg.log.Debugf("resource '%s' (%s) loading, instance %s", path, rg.typeName, r.InstanceID)
	rg.backend.ReadAsync(path, func(_ string, data []byte, err error) {
		rg.enqueue(completion{res: r, data: data, err: err})
	})

	return r, nil
}

// Get looks up a resource without touching its reference count. For
// diagnostic and introspection use only.
func (rg *Registry) Get(path string) (*Resource, bool) {
	r, ok := rg.table[path]
	return r, ok
}

// Unload releases one reference. Memory and state stay untouched until the
// next sweep, so an immediate re-Load costs nothing.
func (rg *Registry) Unload(r *Resource) {
	if r == nil {
		return
	}
	if r.refCount <= 0 {
		rg.log.Errorf("registry %s - Unload of '%s' with no outstanding references", rg.typeName, r.Path)
		return
	}
	r.refCount--
}

// Pump applies queued read completions on the owning goroutine. Must be
// called from that goroutine at the host's pump point.
func (rg *Registry) Pump() {
	for {
		rg.completionMutex.Lock()
		c, err := rg.completions.Dequeue()
		rg.completionMutex.Unlock()
		if err != nil {
			return
		}
		rg.apply(c)
	}
}

// PendingCompletions reports how many read completions await the next pump.
func (rg *Registry) PendingCompletions() int {
	rg.completionMutex.Lock()
	defer rg.completionMutex.Unlock()
	return rg.completions.Len()
}

// LoadingCount reports how many resources have not reached a terminal state.
func (rg *Registry) LoadingCount() int {
	n := 0
	for _, r := range rg.table {
		if r.state == StateLoading {
			n++
		}
	}
	return n
}

// TotalBytes sums the payload sizes of all ready resources.
func (rg *Registry) TotalBytes() uint64 {
	var total uint64
	for _, r := range rg.table {
		total += r.ByteSize
	}
	return total
}

// RemoveUnreferenced destroys every entry whose reference count is zero,
// releasing its dependency edges, and repeats until a fixed point since a
// cascade may expose further zero-reference entries. Entries with an
// in-flight read survive until their completion has been applied. Returns
// the number of destroyed entries.
func (rg *Registry) RemoveUnreferenced() int {
	freed := 0
	for {
		n := 0
		for path, r := range rg.table {
			if r.refCount == 0 && r.state != StateLoading {
				rg.destroy(path, r)
				n++
			}
		}
		freed += n
		if n == 0 {
			return freed
		}
	}
}

func (rg *Registry) destroy(path string, r *Resource) {
	delete(rg.table, path)
	for _, d := range r.dependencies {
		d.registry.Unload(d)
	}
	r.dependencies = nil
	r.observers = nil
	r.onDependencyChanged = nil
	r.Payload = nil
	r.ByteSize = 0
	r.state = StateEmpty
	rg.log.Debugf("resource '%s' (%s) evicted", path, rg.typeName)
}

func (rg *Registry) enqueue(c completion) {
	rg.completionMutex.Lock()
	rg.completions.Enqueue(c)
	rg.completionMutex.Unlock()
}

func (rg *Registry) apply(c completion) {
	r := c.res
	if r.state != StateLoading {
		// Completed after the entry was already resolved elsewhere, e.g. a
		// cycle diagnosis failed it. Nothing left to apply.
		rg.log.Debugf("registry %s - dropping stale completion for '%s' (%s)", rg.typeName, r.Path, r.state)
		return
	}
	if c.err != nil {
		if errors.Is(c.err, storage.ErrNotFound) {
			r.fail(fmt.Errorf("%w: '%s'", ErrNotFound, r.Path))
		} else {
			r.fail(fmt.Errorf("%w: '%s': %s", ErrRead, r.Path, c.err.Error()))
		}
		return
	}
	if err := rg.decoder.Decode(rg.manager, r, c.data); err != nil {
		r.fail(fmt.Errorf("%w: '%s': %s", ErrDecode, r.Path, err.Error()))
		return
	}
	r.decodeDone = true
	r.recompute()
}
