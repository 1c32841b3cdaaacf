package pdftoolkit

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/techVasanthsmart/pdf-toolkit/internal/fileutil"
)

// Lease is an ephemeral handle to a published artifact, for example a
// temporary file a user can open. It stays valid until Release.
type Lease interface {
	Artifact() Artifact
	Location() string
	Release() error
}

// Publisher makes artifacts reachable outside the process.
type Publisher interface {
	Publish(a Artifact) (Lease, error)
}

var (
	_ Publisher = TempPublisher{}
	_ Lease     = (*tempLease)(nil)
)

// TempPublisher writes each artifact to its own temporary file and removes
// it on release.
type TempPublisher struct{}

// Publish writes a to a temporary file keeping its extension.
func (TempPublisher) Publish(a Artifact) (Lease, error) {
	ext := filepath.Ext(a.Name)
	if len(ext) > 1 {
		ext = ext[1:]
	} else {
		ext = "bin"
	}
	path, cleanup, err := fileutil.WriteTempFile(a.Data, ext)
	if err != nil {
		return nil, errors.Join(ErrWriteOutput, err)
	}
	return &tempLease{artifact: a, path: path, cleanup: cleanup}, nil
}

type tempLease struct {
	artifact Artifact
	path     string
	once     sync.Once
	cleanup  func()
}

func (l *tempLease) Artifact() Artifact { return l.artifact }
func (l *tempLease) Location() string   { return l.path }

// Release removes the file. Later calls do nothing.
func (l *tempLease) Release() error {
	l.once.Do(l.cleanup)
	return nil
}

// Slot owns the leases of one workflow step. Publishing new artifacts
// releases the previous ones first, so at most one generation is live.
type Slot struct {
	mu        sync.Mutex
	publisher Publisher
	leases    []Lease
}

// NewSlot creates a slot. A nil publisher selects TempPublisher.
func NewSlot(p Publisher) *Slot {
	if p == nil {
		p = TempPublisher{}
	}
	return &Slot{publisher: p}
}

// Replace releases the current leases and publishes arts. If publishing
// fails partway, the leases already created are released and the slot is
// left empty.
func (s *Slot) Replace(arts ...Artifact) ([]Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	releaseErr := s.releaseLocked()

	leases := make([]Lease, 0, len(arts))
	for _, a := range arts {
		l, err := s.publisher.Publish(a)
		if err != nil {
			for _, done := range leases {
				_ = done.Release()
			}
			return nil, errors.Join(err, releaseErr)
		}
		leases = append(leases, l)
	}
	s.leases = leases
	return append([]Lease(nil), leases...), releaseErr
}

// Leases returns the live leases.
func (s *Slot) Leases() []Lease {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Lease(nil), s.leases...)
}

// Release drops every live lease.
func (s *Slot) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked()
}

func (s *Slot) releaseLocked() error {
	var errs []error
	for _, l := range s.leases {
		if err := l.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	s.leases = nil
	return errors.Join(errs...)
}
