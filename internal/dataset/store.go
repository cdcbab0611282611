package dataset

import (
	"errors"
	"fmt"
	"sync"

	"github.com/KaramelBytes/dqagent/internal/logging"
)

// ErrNoDataset is returned by every operation that needs data before a
// successful load.
var ErrNoDataset = errors.New("no dataset loaded")

// Store owns the single live dataset of the process. Readers receive
// snapshots that are never mutated; writers replace the dataset wholesale.
type Store struct {
	wmu  sync.Mutex // serializes Load and Update
	mu   sync.RWMutex
	ds   *Dataset
	path string
	opt  Options
}

// NewStore returns an empty store that reads files with opt.
func NewStore(opt Options) *Store {
	return &Store{opt: opt}
}

// Load reads path and atomically replaces the live dataset. On failure the
// previous dataset stays in place.
func (s *Store) Load(path string) (*Dataset, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	ds, err := LoadFile(path, s.opt)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.ds = ds
	s.path = path
	s.mu.Unlock()
	logging.New("dataset").Info("dataset loaded", "path", path, "rows", ds.Rows(), "columns", len(ds.Columns), "id", ds.ID)
	return ds, nil
}

// Set installs an already built dataset.
func (s *Store) Set(ds *Dataset) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	s.ds = ds
	s.mu.Unlock()
}

// IsLoaded reports whether a dataset is available.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds != nil
}

// Path returns the path of the last successful load.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Snapshot returns the live dataset. Callers must treat it as read-only.
func (s *Store) Snapshot() (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return nil, ErrNoDataset
	}
	return s.ds, nil
}

// Update hands fn an owned copy of the live dataset and swaps in whatever fn
// returns. Writers are serialized; readers keep seeing the old snapshot
// until the swap.
func (s *Store) Update(fn func(owned *Dataset) (*Dataset, error)) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	cur, err := s.Snapshot()
	if err != nil {
		return err
	}
	next, err := fn(cur.Clone())
	if err != nil {
		return err
	}
	if next == nil {
		return fmt.Errorf("update returned no dataset")
	}
	s.mu.Lock()
	s.ds = next
	s.mu.Unlock()
	return nil
}
