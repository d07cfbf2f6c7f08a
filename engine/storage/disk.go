package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/atlas/engine/core"
	"github.com/spaghettifunk/atlas/engine/jobs"
)

// DiskBackend reads assets from a base-path rooted directory tree.
// Asynchronous reads run on the shared worker pool. When watching is
// enabled, modified files under the base path are reported on Changes so the
// host can trigger reloads at its own pace.
type DiskBackend struct {
	basePath string
	pool     *jobs.Pool
	log      core.Logger

	watcher *fsnotify.Watcher
	changes chan string
	done    chan struct{}
}

func NewDiskBackend(basePath string, pool *jobs.Pool, log core.Logger, watch bool) (*DiskBackend, error) {
	if basePath == "" {
		return nil, fmt.Errorf("NewDiskBackend - basePath must not be empty")
	}
	db := &DiskBackend{
		basePath: basePath,
		pool:     pool,
		log:      log,
	}

	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, err
		}
		db.watcher = w
		db.changes = make(chan string, 64)
		db.done = make(chan struct{})
		if err := db.watchRecursive(basePath); err != nil {
			w.Close()
			return nil, err
		}
		go db.watchLoop()
	}

	log.Infof("Disk backend initialized with base path '%s'.", basePath)

	return db, nil
}

func (db *DiskBackend) ReadSync(path string) ([]byte, error) {
	data, err := os.ReadFile(db.resolve(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

// ReadAsync hands the read to the worker pool without ever parking the
// caller, even when the task queue is full. Load paths run on the owning
// goroutine and must not stall behind slow reads.
func (db *DiskBackend) ReadAsync(path string, fn CompletionFunc) {
	db.pool.SubmitNonBlocking(jobs.Task{
		Run: func() ([]byte, error) {
			return db.ReadSync(path)
		},
		OnComplete: func(data []byte, err error) {
			fn(path, data, err)
		},
	})
}

// Changes reports paths (relative to the base path) whose contents changed
// on disk. Nil when watching is disabled.
func (db *DiskBackend) Changes() <-chan string {
	return db.changes
}

// Close stops the watcher, if any. The worker pool is owned by the caller.
func (db *DiskBackend) Close() error {
	if db.watcher == nil {
		return nil
	}
	close(db.done)
	return db.watcher.Close()
}

func (db *DiskBackend) resolve(path string) string {
	return filepath.Join(db.basePath, filepath.FromSlash(path))
}

func (db *DiskBackend) watchRecursive(root string) error {
	return filepath.Walk(root, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return db.watcher.Add(walkPath)
		}
		return nil
	})
}

func (db *DiskBackend) watchLoop() {
	for {
		select {
		case e, ok := <-db.watcher.Events:
			if !ok {
				return
			}
			if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := db.watchRecursive(e.Name); err != nil {
						db.log.Errorf("disk backend failed to watch '%s': %s", e.Name, err.Error())
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				rel, err := filepath.Rel(db.basePath, e.Name)
				if err != nil {
					continue
				}
				select {
				case db.changes <- filepath.ToSlash(rel):
				default:
					// Host is not draining; drop rather than block the watcher.
				}
			}
		case e, ok := <-db.watcher.Errors:
			if !ok {
				return
			}
			db.log.Errorf(e.Error())
		case <-db.done:
			return
		}
	}
}
