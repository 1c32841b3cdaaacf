package pdftoolkit

import (
	"fmt"
	"slices"
	"sync"
)

// PageRef points at one page of a source document. Index is 0-based.
// Two refs are equal when they name the same handle and index.
type PageRef struct {
	Handle HandleID
	Index  int
}

// RefsFor returns one ref per page of h in source order.
func RefsFor(h DocumentHandle) []PageRef {
	refs := make([]PageRef, h.PageCount())
	for i := range refs {
		refs[i] = PageRef{Handle: h.ID(), Index: i}
	}
	return refs
}

// Sequence is the ordered, editable list of page refs a job assembles.
// Every edit is all-or-nothing: an invalid position leaves it untouched.
type Sequence struct {
	mu     sync.Mutex
	refs   []PageRef
	loaded bool
}

// Append adds every page of h in source order.
func (s *Sequence) Append(h DocumentHandle) {
	s.AppendRefs(RefsFor(h)...)
}

// AppendRefs adds refs at the end.
func (s *Sequence) AppendRefs(refs ...PageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs = append(s.refs, refs...)
	s.loaded = true
}

// Reorder moves the ref at position from to position to, shifting the
// refs in between.
func (s *Sequence) Reorder(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPosition(from); err != nil {
		return err
	}
	if err := s.checkPosition(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	ref := s.refs[from]
	s.refs = slices.Delete(s.refs, from, from+1)
	s.refs = slices.Insert(s.refs, to, ref)
	return nil
}

// RemoveAt drops the ref at pos.
func (s *Sequence) RemoveAt(pos int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPosition(pos); err != nil {
		return err
	}
	s.refs = slices.Delete(s.refs, pos, pos+1)
	return nil
}

func (s *Sequence) checkPosition(pos int) error {
	if pos < 0 || pos >= len(s.refs) {
		return fmt.Errorf("%w: %d (sequence has %d pages)", ErrPosition, pos, len(s.refs))
	}
	return nil
}

// Snapshot returns an independent copy of the refs.
func (s *Sequence) Snapshot() []PageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.refs)
}

// Refs is an alias for Snapshot.
func (s *Sequence) Refs() []PageRef {
	return s.Snapshot()
}

// Len returns the number of refs.
func (s *Sequence) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Loaded reports whether anything was ever appended since the last Reset.
// A sequence emptied by removals is still loaded.
func (s *Sequence) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Reset empties the sequence and marks it as never loaded.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = nil
	s.loaded = false
}
