package resources

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ObserverFunc is invoked exactly once when the resource transitions into
// Ready or Failed. Observers registered after the transition fire
// immediately. All invocations happen on the owning goroutine.
type ObserverFunc func(r *Resource)

// ObserverToken identifies a registered observer for explicit removal.
// The zero token is returned when the observer already fired at
// registration time; removing it is a no-op.
type ObserverToken uint64

type observerEntry struct {
	token ObserverToken
	fn    ObserverFunc
}

/**
 * @brief The unit of caching: a typed, path-identified object with a state
 * machine, a reference count and dependency edges to other resources.
 * Only the owning registry mutates state, reference count and dependencies.
 */
type Resource struct {
	/** @brief The dedup key, immutable after creation. */
	Path string
	/** @brief The hash of the owning registry's type name. */
	TypeID TypeID
	/** @brief Per-instance identifier used only in diagnostics. */
	InstanceID uuid.UUID
	/** @brief The decoded payload. Nil unless the state is Ready. */
	Payload interface{}
	/** @brief Size of the decoded payload in bytes, for accounting. */
	ByteSize uint64

	registry     *Registry
	state        State
	refCount     int
	decodeDone   bool
	failure      error
	dependencies []*Resource
	observers    []observerEntry
	nextToken    ObserverToken

	// Consumer hook for derived configuration; see SetDependencyHook.
	onDependencyChanged func(child *Resource)
}

func (r *Resource) State() State {
	return r.state
}

func (r *Resource) RefCount() int {
	return r.refCount
}

// Failure returns the error that drove the resource into Failed, wrapping
// one of ErrNotFound, ErrDecode or ErrDependencyFailed. Nil otherwise.
func (r *Resource) Failure() error {
	return r.failure
}

// Dependencies returns a copy of the current dependency edges.
func (r *Resource) Dependencies() []*Resource {
	deps := make([]*Resource, len(r.dependencies))
	copy(deps, r.dependencies)
	return deps
}

// Observe registers fn to be called once the resource reaches Ready or
// Failed. If the resource is already terminal, fn runs synchronously before
// Observe returns and the zero token comes back.
func (r *Resource) Observe(fn ObserverFunc) ObserverToken {
	if r.state == StateReady || r.state == StateFailed {
		fn(r)
		return 0
	}
	r.nextToken++
	r.observers = append(r.observers, observerEntry{token: r.nextToken, fn: fn})
	return r.nextToken
}

// RemoveObserver unregisters a pending observer. Tied to the consumer's own
// lifetime: remove before the consumer goes away, or the callback may fire
// into a dead owner.
func (r *Resource) RemoveObserver(token ObserverToken) {
	if token == 0 {
		return
	}
	for i, e := range r.observers {
		if e.token == token {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// SetDependencyHook installs a consumer hook that runs synchronously inside
// every dependency-change notification, before the readiness recomputation.
// Used for derived configuration that toggles with dependency presence,
// such as a material's define mask.
func (r *Resource) SetDependencyHook(fn func(child *Resource)) {
	r.onDependencyChanged = fn
}

// AddDependency records that r cannot be Ready until child is. Called by
// decoders while Decode runs; the child handle must come from a Load so the
// reference counts stay balanced. Duplicate edges are allowed, one per Load.
func (r *Resource) AddDependency(child *Resource) {
	r.dependencies = append(r.dependencies, child)
	child.Observe(func(c *Resource) {
		r.notifyDependency(c)
	})
}

func (r *Resource) notifyDependency(child *Resource) {
	if r.onDependencyChanged != nil {
		r.onDependencyChanged(child)
	}
	r.recompute()
}

// recompute derives the resource's state from its own decode progress and
// the states of its direct dependencies. Runs after the owning goroutine
// applies any child completion, so it sees a consistent snapshot.
func (r *Resource) recompute() {
	if r.state != StateLoading || !r.decodeDone {
		return
	}
	for _, d := range r.dependencies {
		if d.state == StateFailed {
			r.fail(fmt.Errorf("%w: '%s'", ErrDependencyFailed, d.Path))
			return
		}
	}
	if cycle := findCycle(r); cycle != nil {
		failCycle(cycle)
		return
	}
	for _, d := range r.dependencies {
		if d.state != StateReady {
			return
		}
	}
	r.toReady()
}

func (r *Resource) toReady() {
	r.state = StateReady
	r.registry.log.Debugf("resource '%s' (%s) is ready, %d bytes", r.Path, r.registry.typeName, r.ByteSize)
	r.fireObservers()
}

// fail drives the resource into Failed. A failed resource has no payload.
func (r *Resource) fail(err error) {
	if r.state == StateFailed {
		return
	}
	r.state = StateFailed
	r.failure = err
	r.Payload = nil
	r.ByteSize = 0
	r.registry.log.Errorf("resource '%s' (%s) failed: %s", r.Path, r.registry.typeName, err.Error())
	r.fireObservers()
}

// fireObservers invokes and clears all registered observers in registration
// order, exactly once per terminal transition.
func (r *Resource) fireObservers() {
	pending := r.observers
	r.observers = nil
	for _, e := range pending {
		e.fn(r)
	}
}

// findCycle walks the dependency edges from root and returns the member
// chain of a cycle leading back to root, or nil. The visited set bounds the
// walk; without it a malformed graph would loop the recomputation forever.
func findCycle(root *Resource) []*Resource {
	visited := make(map[*Resource]bool)
	var dfs func(n *Resource, path []*Resource) []*Resource
	dfs = func(n *Resource, path []*Resource) []*Resource {
		if visited[n] {
			return nil
		}
		visited[n] = true
		path = append(path, n)
		for _, d := range n.dependencies {
			if d == root {
				cycle := make([]*Resource, len(path))
				copy(cycle, path)
				return cycle
			}
			if c := dfs(d, path); c != nil {
				return c
			}
		}
		return nil
	}
	return dfs(root, nil)
}

// failCycle marks every member of a dependency cycle as Failed with a
// decode error. States are set before any observer fires so the usual
// dependency-failure propagation cannot preempt the cycle diagnosis.
func failCycle(members []*Resource) {
	names := make([]string, 0, len(members)+1)
	for _, m := range members {
		names = append(names, m.Path)
	}
	names = append(names, members[0].Path)
	err := fmt.Errorf("%w: dependency cycle %s", ErrDecode, strings.Join(names, " -> "))

	var failed []*Resource
	for _, m := range members {
		if m.state != StateLoading {
			continue
		}
		m.state = StateFailed
		m.failure = err
		m.Payload = nil
		m.ByteSize = 0
		m.registry.log.Errorf("resource '%s' (%s) failed: %s", m.Path, m.registry.typeName, err.Error())
		failed = append(failed, m)
	}
	for _, m := range failed {
		m.fireObservers()
	}
}
