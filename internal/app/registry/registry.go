package registry

import (
	"sync/atomic"

	apperrors "embedding-harmonizer/internal/app/errors"
)

// Reader is the read-only registry surface handed to every consumer other
// than discovery.
type Reader interface {
	// Current returns the active snapshot. Callers keep using the returned
	// value for the whole of an operation to see a consistent model set.
	Current() *Snapshot
	Lookup(modelKey string) (ModelDescriptor, bool)
	All() []ModelDescriptor
	CompatibilityReport() CompatibilityReport
}

// Registry holds the live snapshot behind an atomic pointer. Readers never
// take a lock; Replace is the only mutation.
type Registry struct {
	current   atomic.Pointer[Snapshot]
	listeners []func(*Snapshot)
}

// New creates a registry whose active snapshot is initial.
func New(initial *Snapshot) *Registry {
	r := &Registry{}
	r.current.Store(initial)
	return r
}

// OnReplace registers fn to be called after every successful Replace. It must
// be called before the registry is shared.
func (r *Registry) OnReplace(fn func(*Snapshot)) {
	r.listeners = append(r.listeners, fn)
}

// Current returns the active snapshot.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Lookup resolves a model against the active snapshot.
func (r *Registry) Lookup(modelKey string) (ModelDescriptor, bool) {
	return r.Current().Lookup(modelKey)
}

// All lists the active snapshot's models ordered by key.
func (r *Registry) All() []ModelDescriptor {
	return r.Current().All()
}

// CompatibilityReport summarizes the active snapshot.
func (r *Registry) CompatibilityReport() CompatibilityReport {
	return BuildReport(r.Current())
}

// Replace atomically swaps in next. Versions must strictly increase so a
// stale snapshot can never overwrite a newer one.
func (r *Registry) Replace(next *Snapshot) error {
	if next == nil {
		return apperrors.RequiredField("snapshot")
	}
	for {
		prev := r.current.Load()
		if prev != nil && next.Version() <= prev.Version() {
			return apperrors.Newf("snapshot version %d is not newer than active version %d", next.Version(), prev.Version())
		}
		if r.current.CompareAndSwap(prev, next) {
			break
		}
	}
	for _, fn := range r.listeners {
		fn(next)
	}
	return nil
}
