package pdftoolkit

import "sync"

// HandleResolver looks up document handles by ID.
type HandleResolver interface {
	Handle(id HandleID) (DocumentHandle, bool)
}

var _ HandleResolver = (*Registry)(nil)

// Registry is the arena that owns the document handles of a workflow.
// Page references hold IDs, not handles; a handle stays resolvable while
// its reference count is positive.
type Registry struct {
	mu      sync.Mutex
	entries map[HandleID]*registryEntry
}

type registryEntry struct {
	handle DocumentHandle
	refs   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[HandleID]*registryEntry)}
}

// Add registers h with one reference, or adds a reference if h is already
// registered. It returns the handle's ID.
func (r *Registry) Add(h DocumentHandle) HandleID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := h.ID()
	if e, ok := r.entries[id]; ok {
		e.refs++
		return id
	}
	r.entries[id] = &registryEntry{handle: h, refs: 1}
	return id
}

// Retain adds a reference to a registered handle.
func (r *Registry) Retain(id HandleID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.refs++
	return true
}

// Release drops one reference and reports whether the handle was removed.
func (r *Registry) Release(id HandleID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.refs--
	if e.refs > 0 {
		return false
	}
	delete(r.entries, id)
	return true
}

// Handle returns the registered handle for id.
func (r *Registry) Handle(id HandleID) (DocumentHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear drops every handle regardless of reference counts.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

// handleSet is a HandleResolver over a fixed list of handles, used by the
// stateless Toolkit operations.
type handleSet map[HandleID]DocumentHandle

func newHandleSet(handles ...DocumentHandle) handleSet {
	s := make(handleSet, len(handles))
	for _, h := range handles {
		s[h.ID()] = h
	}
	return s
}

func (s handleSet) Handle(id HandleID) (DocumentHandle, bool) {
	h, ok := s[id]
	return h, ok
}
