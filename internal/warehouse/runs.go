package warehouse

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flanksource/scanhub/models"
)

// GetOrCreateRun returns the surrogate run key for the given
// (tool_name, run_id, repository_id) scope, inserting the row if it does not
// exist. Insert-if-absent via the unique index, so concurrent callers racing
// on the same scope both end up with the surviving row's key. Re-ingesting a
// run therefore never creates a second scope.
func (db *DB) GetOrCreateRun(ctx context.Context, run models.ToolRun) (uint, error) {
	return getOrCreateRun(db.orm.WithContext(ctx), run)
}

func getOrCreateRun(tx *gorm.DB, run models.ToolRun) (uint, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	res := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "tool_name"},
			{Name: "run_id"},
			{Name: "repository_id"},
		},
		DoNothing: true,
	}).Create(&run)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to create tool run %s: %w", run, res.Error)
	}

	// Re-select unconditionally: on conflict the insert assigns no key.
	var existing models.ToolRun
	err := tx.Where("tool_name = ? AND run_id = ? AND repository_id = ?",
		run.ToolName, run.RunID, run.RepositoryID).First(&existing).Error
	if err != nil {
		return 0, fmt.Errorf("failed to look up tool run %s: %w", run, err)
	}
	return existing.RunKey, nil
}

// ListRuns returns all run scopes, newest first.
func (db *DB) ListRuns(ctx context.Context) ([]models.ToolRun, error) {
	var runs []models.ToolRun
	err := db.orm.WithContext(ctx).Order("created_at DESC, run_key DESC").Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tool runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run scope and every finding row it owns. This is the
// only way finding rows are ever deleted.
func (db *DB) DeleteRun(ctx context.Context, runKey uint) error {
	return db.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{
			&models.LintViolation{},
			&models.Vulnerability{},
			&models.CoverageRecord{},
			&models.DependencyEdge{},
			&models.DirectoryRollup{},
		} {
			if err := tx.Where("run_key = ?", runKey).Delete(table).Error; err != nil {
				return fmt.Errorf("failed to delete %T rows for run %d: %w", table, runKey, err)
			}
		}
		if err := tx.Delete(&models.ToolRun{}, runKey).Error; err != nil {
			return fmt.Errorf("failed to delete tool run %d: %w", runKey, err)
		}
		return nil
	})
}
