package engine

import (
	"time"

	"github.com/spaghettifunk/atlas/engine/assets"
	"github.com/spaghettifunk/atlas/engine/config"
	"github.com/spaghettifunk/atlas/engine/core"
	"github.com/spaghettifunk/atlas/engine/jobs"
	"github.com/spaghettifunk/atlas/engine/resources"
	"github.com/spaghettifunk/atlas/engine/snapshot"
	"github.com/spaghettifunk/atlas/engine/storage"
)

// Engine wires the asset cache together: worker pool, chained storage
// devices, the resource manager with the built-in decoders, and the
// snapshot coordinator. The host owns the loop: call Update once per tick
// on the goroutine that created the engine.
type Engine struct {
	config config.Config
	log    core.Logger
	pool   *jobs.Pool
	disk   *storage.DiskBackend
	memory *storage.MemoryBackend

	clock     *core.Clock
	lastTick  time.Duration
	tickDelta time.Duration

	Resources *resources.Manager
	Snapshots *snapshot.Coordinator
}

func New(cfg config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := core.NewLogger("Atlas 🗃️ ", cfg.LogLevel)

	pool, err := jobs.NewPool(cfg.Workers, cfg.ReadQueueSize, log)
	if err != nil {
		return nil, err
	}

	disk, err := storage.NewDiskBackend(cfg.AssetBasePath, pool, log, cfg.WatchAssets)
	if err != nil {
		pool.Shutdown()
		return nil, err
	}

	// Default device chain: memory first, disk as fallback.
	memory := storage.NewMemoryBackend(disk)

	mgr := resources.NewManager(memory, log)
	decoders := []resources.Decoder{
		assets.NewShaderDecoder(log),
		assets.NewTextureDecoder(),
		assets.NewMaterialDecoder(log),
	}
	for _, d := range decoders {
		if _, err := mgr.RegisterType(d); err != nil {
			disk.Close()
			pool.Shutdown()
			return nil, err
		}
	}

	coord := snapshot.NewCoordinator(log)
	for _, name := range cfg.Capabilities {
		coord.AddCapability(name)
	}

	log.Infof("Engine initialized with base path '%s'.", cfg.AssetBasePath)

	clock := core.NewClock()
	clock.Start()

	return &Engine{
		config:    cfg,
		log:       log,
		pool:      pool,
		disk:      disk,
		memory:    memory,
		clock:     clock,
		Resources: mgr,
		Snapshots: coord,
	}, nil
}

// Log returns the engine-wide diagnostics sink.
func (e *Engine) Log() core.Logger {
	return e.log
}

// Memory exposes the front device of the storage chain; hosts and tests may
// pin bytes there to shadow the disk copy.
func (e *Engine) Memory() *storage.MemoryBackend {
	return e.memory
}

// Changes reports asset paths modified on disk when watching is enabled.
func (e *Engine) Changes() <-chan string {
	return e.disk.Changes()
}

// Update applies queued read completions. Must run on the owning goroutine,
// once per tick; resource state never mutates anywhere else.
func (e *Engine) Update() {
	e.clock.Update()
	current := e.clock.Elapsed()
	e.tickDelta = current - e.lastTick
	e.lastTick = current

	e.Resources.Pump()
}

// TickDelta returns the wall time between the two most recent Update calls.
// A queued completion waits at most one tick delta before it applies.
func (e *Engine) TickDelta() time.Duration {
	return e.tickDelta
}

func (e *Engine) Shutdown() error {
	if err := e.disk.Close(); err != nil {
		return err
	}
	return e.pool.Shutdown()
}
