package catalog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Version identifies a concrete revision of the catalog file. A changed
// version invalidates the cached snapshot.
type Version struct {
	ModTime time.Time
	Exists  bool
}

// VersionFunc reports the current version of the catalog source.
type VersionFunc func(path string) Version

// FileVersion is the default VersionFunc, keyed on file modification time.
func FileVersion(path string) Version {
	info, err := os.Stat(path)
	if err != nil {
		return Version{}
	}
	return Version{ModTime: info.ModTime(), Exists: true}
}

// Store caches a parsed catalog snapshot and re-parses when the source
// version changes. Callers take one snapshot per request and hold it for
// the request's duration.
type Store struct {
	path    string
	version VersionFunc

	mu      sync.Mutex
	snap    *Snapshot
	current Version
	loaded  bool
}

// NewStore creates a catalog store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path, version: FileVersion}
}

// NewStoreWithVersion creates a store with an injected version check,
// used by tests to drive invalidation explicitly.
func NewStoreWithVersion(path string, version VersionFunc) *Store {
	return &Store{path: path, version: version}
}

// Snapshot returns the current catalog snapshot, re-parsing the source
// file if its version changed since the last load. A missing file yields
// an empty catalog rather than an error.
func (s *Store) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.version(s.path)
	if s.loaded && v == s.current {
		return s.snap, nil
	}

	snap, err := s.load(v)
	if err != nil {
		return nil, err
	}

	s.snap = snap
	s.current = v
	s.loaded = true
	return snap, nil
}

func (s *Store) load(v Version) (*Snapshot, error) {
	if !v.Exists {
		log.Warn().Str("path", s.path).Msg("Catalog file not found, serving empty catalog")
		return Empty(), nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	snap, err := Parse(f)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("path", s.path).
		Int("cases", len(snap.Cases)).
		Int("weapons", len(snap.Weapons)).
		Msg("Catalog loaded")

	return snap, nil
}
