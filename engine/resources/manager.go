package resources

import (
	"fmt"

	"github.com/spaghettifunk/atlas/engine/core"
	"github.com/spaghettifunk/atlas/engine/storage"
)

/**
 * @brief Owns one registry per registered resource type and fans pump and
 * sweep calls out to all of them. Mirrors the per-system wiring of the
 * engine: construct once, register decoders, then drive from the host loop.
 */
type Manager struct {
	log     core.Logger
	backend storage.Backend

	registries map[TypeID]*Registry
	order      []TypeID
	byName     map[string]TypeID
}

func NewManager(backend storage.Backend, log core.Logger) *Manager {
	return &Manager{
		log:        log,
		backend:    backend,
		registries: make(map[TypeID]*Registry),
		byName:     make(map[string]TypeID),
	}
}

// RegisterType creates the registry for a decoder's type. Registering the
// same type name twice is an error.
func (m *Manager) RegisterType(decoder Decoder) (*Registry, error) {
	name := decoder.TypeName()
	if _, exists := m.byName[name]; exists {
		return nil, fmt.Errorf("manager - a registry for type '%s' already exists", name)
	}
	rg := NewRegistry(decoder, m.backend, m.log)
	rg.manager = m
	m.registries[rg.typeID] = rg
	m.byName[name] = rg.typeID
	m.order = append(m.order, rg.typeID)
	m.log.Infof("Registered resource type '%s' (id %d).", name, rg.typeID)
	return rg, nil
}

// Registry returns the registry for a type name.
func (m *Manager) Registry(typeName string) (*Registry, bool) {
	id, ok := m.byName[typeName]
	if !ok {
		return nil, false
	}
	return m.registries[id], true
}

// Load resolves the registry for typeName and loads path through it.
func (m *Manager) Load(typeName, path string) (*Resource, error) {
	rg, ok := m.Registry(typeName)
	if !ok {
		return nil, fmt.Errorf("manager - no registry for type '%s'", typeName)
	}
	return rg.Load(path)
}

// Get looks up without touching reference counts.
func (m *Manager) Get(typeName, path string) (*Resource, bool) {
	rg, ok := m.Registry(typeName)
	if !ok {
		return nil, false
	}
	return rg.Get(path)
}

// Pump applies queued completions across all registries. Must run on the
// single owning goroutine, once per tick.
func (m *Manager) Pump() {
	for _, id := range m.order {
		m.registries[id].Pump()
	}
}

// LoadingCount reports resources still in flight across all registries.
func (m *Manager) LoadingCount() int {
	n := 0
	for _, id := range m.order {
		n += m.registries[id].LoadingCount()
		n += m.registries[id].PendingCompletions()
	}
	return n
}

// TotalBytes sums payload accounting across all registries.
func (m *Manager) TotalBytes() uint64 {
	var total uint64
	for _, id := range m.order {
		total += m.registries[id].TotalBytes()
	}
	return total
}

// RemoveUnreferenced sweeps every registry until no registry frees anything,
// since evicting an entry in one registry can release the last reference to
// an entry in another. Never call concurrently with Pump; both belong to
// the owning goroutine.
func (m *Manager) RemoveUnreferenced() int {
	freed := 0
	for {
		n := 0
		for _, id := range m.order {
			n += m.registries[id].RemoveUnreferenced()
		}
		freed += n
		if n == 0 {
			return freed
		}
	}
}
