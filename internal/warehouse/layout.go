package warehouse

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/flanksource/scanhub/models"
)

var (
	// ErrRunNotLaidOut reports that no layout snapshot exists for the
	// (repository_id, run_id) scope. Ingestion must stop on it: it is a
	// pipeline ordering bug, not a per-record resolution miss.
	ErrRunNotLaidOut = errors.New("run not laid out")

	// ErrSnapshotExists reports a second PutSnapshot for a scope that is
	// already laid out. Snapshots are written exactly once per run.
	ErrSnapshotExists = errors.New("layout snapshot already exists")
)

// InsertLayout bulk-inserts a full layout snapshot for one
// (repository_id, run_id) scope. The insert is all-or-nothing inside one
// transaction, and the existence check shares that transaction so two racing
// writers serialize on the database rather than on a process lock.
func (db *DB) InsertLayout(ctx context.Context, repositoryID, runID string, entries []models.LayoutEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("refusing to insert an empty layout snapshot for %s/%s", repositoryID, runID)
	}

	return db.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LayoutEntry{}).
			Where("repository_id = ? AND run_id = ?", repositoryID, runID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for existing snapshot: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w for %s/%s", ErrSnapshotExists, repositoryID, runID)
		}

		// Copy the rows so the caller's slice keeps no assigned keys and can
		// be reused for another scope.
		rows := make([]models.LayoutEntry, len(entries))
		for i, entry := range entries {
			entry.ID = 0
			entry.RepositoryID = repositoryID
			entry.RunID = runID
			rows[i] = entry
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to insert layout snapshot for %s/%s: %w", repositoryID, runID, err)
		}
		return nil
	})
}

// LoadLayout returns every layout entry for the scope, or ErrRunNotLaidOut
// when the scope has no snapshot at all.
func (db *DB) LoadLayout(ctx context.Context, repositoryID, runID string) ([]models.LayoutEntry, error) {
	var entries []models.LayoutEntry
	err := db.orm.WithContext(ctx).
		Where("repository_id = ? AND run_id = ?", repositoryID, runID).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load layout for %s/%s: %w", repositoryID, runID, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrRunNotLaidOut, repositoryID, runID)
	}
	return entries, nil
}
