/*
This is an example of a host application that wires up the engine
package: it seeds a few assets on the memory device, drives the pump
loop until they are ready, then round-trips a whole-application
snapshot.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spaghettifunk/atlas/engine"
	"github.com/spaghettifunk/atlas/engine/config"
	"github.com/spaghettifunk/atlas/engine/resources"
	"github.com/spaghettifunk/atlas/engine/snapshot"
)

// world is a stand-in root graph: a list of spawned entities with the
// material each one renders with.
type world struct {
	entities  []entity
	resources *resources.Manager
}

type entity struct {
	name     string
	material string
}

func (w *world) Serialize(sw *snapshot.Writer, paths *snapshot.PathTable) error {
	sw.WriteInt32(int32(len(w.entities)))
	for _, e := range w.entities {
		sw.WriteString(e.name)
		sw.WriteInt32(paths.Intern(e.material))
	}
	return nil
}

func (w *world) Deserialize(sr *snapshot.Reader, paths *snapshot.PathTable) error {
	count := sr.Int32()
	w.entities = w.entities[:0]
	for i := int32(0); i < count; i++ {
		name := sr.String()
		material, err := paths.Path(sr.Int32())
		if err != nil {
			return err
		}
		w.entities = append(w.entities, entity{name: name, material: material})
		if _, err := w.resources.Load("material", material); err != nil {
			return err
		}
	}
	return sr.Err()
}

// hierarchy is the parent/child table, a subsystem of its own since the
// snapshot format split it out of the root graph.
type hierarchy struct {
	parents map[string]string
}

func (h *hierarchy) Name() string   { return snapshot.HierarchyName }
func (h *hierarchy) Version() int32 { return 1 }

func (h *hierarchy) Serialize(sw *snapshot.Writer, _ *snapshot.PathTable) error {
	sw.WriteInt32(int32(len(h.parents)))
	for child, parent := range h.parents {
		sw.WriteString(child)
		sw.WriteString(parent)
	}
	return nil
}

func (h *hierarchy) Deserialize(sr *snapshot.Reader, _ *snapshot.PathTable, _ int32) error {
	count := sr.Int32()
	h.parents = make(map[string]string, count)
	for i := int32(0); i < count; i++ {
		child := sr.String()
		h.parents[child] = sr.String()
	}
	return sr.Err()
}

const demoMaterial = `
shader = "shaders/opaque.shd"
shininess = 32.0

[[textures]]
source = "textures/crate.tex"
srgb = true

[[uniforms]]
name = "u_tint"
color = [1.0, 0.8, 0.8]
`

const demoShader = `
defines = ["DIFFUSE_MAP"]

[[uniforms]]
name = "u_tint"
type = "color"

[[textures]]
name = "t_diffuse"
define = "DIFFUSE_MAP"
`

func main() {
	cfg := config.Default()
	cfg.LogLevel = "debug"
	cfg.Capabilities = []string{"renderer", "animation"}

	eng, err := engine.New(cfg)
	if err != nil {
		panic(err)
	}
	log := eng.Log()

	// Pin the demo assets on the memory device so the example runs without
	// an asset directory on disk.
	eng.Memory().Store("materials/crate.mat", []byte(demoMaterial))
	eng.Memory().Store("shaders/opaque.shd", []byte(demoShader))
	eng.Memory().Store("textures/crate.tex", []byte{0x01, 0x02, 0x03, 0x04})

	crate, err := eng.Resources.Load("material", "materials/crate.mat")
	if err != nil {
		panic(err)
	}
	crate.Observe(func(r *resources.Resource) {
		log.Infof("observer: material '%s' reached state %s", r.Path, r.State())
	})

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// pump loop: apply read completions until everything settles
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for eng.Resources.LoadingCount() > 0 {
		select {
		case <-sigCh:
			_ = eng.Shutdown()
			return
		case <-ticker.C:
			eng.Update()
		}
	}

	log.Infof("cache holds %d bytes of payload", eng.Resources.TotalBytes())

	// Snapshot round-trip.
	w := &world{
		entities:  []entity{{name: "crate_01", material: "materials/crate.mat"}},
		resources: eng.Resources,
	}
	h := &hierarchy{parents: map[string]string{"crate_01": "root"}}
	if err := eng.Snapshots.RegisterSubsystem(h); err != nil {
		panic(err)
	}

	stream, crc, err := eng.Snapshots.Serialize(w)
	if err != nil {
		panic(err)
	}
	log.Infof("snapshot: %d bytes, crc 0x%08x", len(stream), crc)

	restored := &world{resources: eng.Resources}
	if err := eng.Snapshots.Deserialize(stream, restored); err != nil {
		panic(err)
	}
	log.Infof("restored %d entities", len(restored.entities))

	// Drop every reference and sweep.
	for _, e := range restored.entities {
		if r, ok := eng.Resources.Get("material", e.material); ok {
			rg, _ := eng.Resources.Registry("material")
			rg.Unload(r) // restore's reference
			rg.Unload(r) // initial load's reference
		}
	}
	freed := eng.Resources.RemoveUnreferenced()
	log.Infof("sweep freed %d resources", freed)

	if err := eng.Shutdown(); err != nil {
		panic(err)
	}
}
