// Package layout persists and serves the file/directory tree of a
// repository at a given collection run, and resolves repo-relative paths to
// their stable identifiers.
package layout

import (
	"context"

	"github.com/flanksource/scanhub/identity"
	"github.com/flanksource/scanhub/internal/warehouse"
	"github.com/flanksource/scanhub/models"
)

// Re-exported so callers can errors.Is without importing internal/.
var (
	ErrRunNotLaidOut  = warehouse.ErrRunNotLaidOut
	ErrSnapshotExists = warehouse.ErrSnapshotExists
)

// Store is the layout snapshot store for one warehouse.
type Store struct {
	db *warehouse.DB
}

// NewStore creates a layout store backed by db.
func NewStore(db *warehouse.DB) *Store {
	return &Store{db: db}
}

// PutSnapshot writes the full tree for one (repository_id, run_id) scope.
// Called exactly once per run, before any adapter; a second call returns
// ErrSnapshotExists.
func (s *Store) PutSnapshot(ctx context.Context, repositoryID, runID string, entries []models.LayoutEntry) error {
	return s.db.InsertLayout(ctx, repositoryID, runID, entries)
}

// Load reads the scope's snapshot into an immutable in-memory index.
// Returns ErrRunNotLaidOut when the scope has no snapshot, which is a fatal
// ordering error for any adapter about to resolve against it.
func (s *Store) Load(ctx context.Context, repositoryID, runID string) (*Snapshot, error) {
	entries, err := s.db.LoadLayout(ctx, repositoryID, runID)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(repositoryID, runID, entries), nil
}

// Resolve looks up a single path without materializing the whole snapshot.
// A miss returns (nil, nil); the caller decides whether that is fatal.
func (s *Store) Resolve(ctx context.Context, repositoryID, runID, relativePath string) (*models.LayoutEntry, error) {
	snapshot, err := s.Load(ctx, repositoryID, runID)
	if err != nil {
		return nil, err
	}
	if entry, ok := snapshot.Resolve(relativePath); ok {
		return entry, nil
	}
	return nil, nil
}

// Snapshot is a read-only index over one scope's layout entries. Built once
// per ingestion and safe for concurrent readers without locking.
type Snapshot struct {
	repositoryID string
	runID        string
	entries      []models.LayoutEntry
	byPath       map[string]*models.LayoutEntry
	byID         map[string]*models.LayoutEntry
}

// NewSnapshot indexes entries by normalized path and by identifier.
func NewSnapshot(repositoryID, runID string, entries []models.LayoutEntry) *Snapshot {
	s := &Snapshot{
		repositoryID: repositoryID,
		runID:        runID,
		entries:      entries,
		byPath:       make(map[string]*models.LayoutEntry, len(entries)),
		byID:         make(map[string]*models.LayoutEntry, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		s.byPath[identity.Normalize(e.RelativePath)] = e
		s.byID[e.EntryID] = e
	}
	return s
}

// Resolve maps a repo-relative path to its layout entry by exact match on
// the normalized path.
func (s *Snapshot) Resolve(relativePath string) (*models.LayoutEntry, bool) {
	entry, ok := s.byPath[identity.Normalize(relativePath)]
	return entry, ok
}

// ByID maps an identifier back to its layout entry.
func (s *Snapshot) ByID(id string) (*models.LayoutEntry, bool) {
	entry, ok := s.byID[id]
	return entry, ok
}

// Root returns the root directory entry when the snapshot contains one.
func (s *Snapshot) Root() (*models.LayoutEntry, bool) {
	return s.ByID(identity.RootID.String())
}

// Len returns the number of entries in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns the underlying entries. Callers must not mutate them.
func (s *Snapshot) Entries() []models.LayoutEntry {
	return s.entries
}

// RepositoryID returns the repository scope of the snapshot.
func (s *Snapshot) RepositoryID() string { return s.repositoryID }

// RunID returns the run scope of the snapshot.
func (s *Snapshot) RunID() string { return s.runID }
