package storage

import (
	"fmt"
	"sync"
)

// MemoryBackend serves reads from an in-memory path table. It backs tests
// and acts as the fast device in a memory→disk chain: paths it does not hold
// are delegated to the fallback backend, if any.
type MemoryBackend struct {
	mutex    sync.RWMutex
	files    map[string][]byte
	fallback Backend
}

func NewMemoryBackend(fallback Backend) *MemoryBackend {
	return &MemoryBackend{
		files:    make(map[string][]byte),
		fallback: fallback,
	}
}

// Store makes data available at path. The slice is copied.
func (mb *MemoryBackend) Store(path string, data []byte) {
	mb.mutex.Lock()
	defer mb.mutex.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	mb.files[path] = buf
}

// Remove drops the bytes stored at path, if any.
func (mb *MemoryBackend) Remove(path string) {
	mb.mutex.Lock()
	defer mb.mutex.Unlock()
	delete(mb.files, path)
}

func (mb *MemoryBackend) ReadSync(path string) ([]byte, error) {
	mb.mutex.RLock()
	data, ok := mb.files[path]
	mb.mutex.RUnlock()
	if !ok {
		if mb.fallback != nil {
			return mb.fallback.ReadSync(path)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (mb *MemoryBackend) ReadAsync(path string, fn CompletionFunc) {
	mb.mutex.RLock()
	data, ok := mb.files[path]
	mb.mutex.RUnlock()
	if !ok && mb.fallback != nil {
		mb.fallback.ReadAsync(path, fn)
		return
	}
	go func() {
		if !ok {
			fn(path, nil, fmt.Errorf("%w: %s", ErrNotFound, path))
			return
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		fn(path, buf, nil)
	}()
}
