package warehouse

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/flanksource/scanhub/models"
)

// insertBatchSize keeps bulk inserts under SQLite's bind variable limit.
const insertBatchSize = 500

// InTransaction runs fn inside one warehouse transaction. Persistence of a
// run's batch goes through here: either every row commits or none does.
func (db *DB) InTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.orm.WithContext(ctx).Transaction(fn)
}

// GetOrCreateRunTx is GetOrCreateRun scoped to an open transaction, so the
// run scope and its findings commit together.
func GetOrCreateRunTx(tx *gorm.DB, run models.ToolRun) (uint, error) {
	return getOrCreateRun(tx, run)
}

func insertRows[T any](tx *gorm.DB, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return fmt.Errorf("failed to insert %d %T rows: %w", len(rows), rows[0], err)
	}
	return nil
}

// InsertViolations bulk-inserts lint violations for one run.
func InsertViolations(tx *gorm.DB, rows []*models.LintViolation) error {
	return insertRows(tx, rows)
}

// InsertVulnerabilities bulk-inserts vulnerabilities for one run.
func InsertVulnerabilities(tx *gorm.DB, rows []*models.Vulnerability) error {
	return insertRows(tx, rows)
}

// InsertCoverage bulk-inserts coverage records for one run.
func InsertCoverage(tx *gorm.DB, rows []*models.CoverageRecord) error {
	return insertRows(tx, rows)
}

// InsertDependencyEdges bulk-inserts dependency edges for one run.
func InsertDependencyEdges(tx *gorm.DB, rows []*models.DependencyEdge) error {
	return insertRows(tx, rows)
}

// InsertRollups bulk-inserts directory rollups for one run.
func InsertRollups(tx *gorm.DB, rows []*models.DirectoryRollup) error {
	return insertRows(tx, rows)
}

// RunRowCounts returns per-table row counts for one run, keyed by table
// name.
func (db *DB) RunRowCounts(ctx context.Context, runKey uint) (map[string]int64, error) {
	counts := make(map[string]int64)
	tables := map[string]interface{}{
		models.LintViolation{}.TableName():   &models.LintViolation{},
		models.Vulnerability{}.TableName():   &models.Vulnerability{},
		models.CoverageRecord{}.TableName():  &models.CoverageRecord{},
		models.DependencyEdge{}.TableName():  &models.DependencyEdge{},
		models.DirectoryRollup{}.TableName(): &models.DirectoryRollup{},
	}
	for name, table := range tables {
		var count int64
		err := db.orm.WithContext(ctx).Model(table).Where("run_key = ?", runKey).Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count %s rows for run %d: %w", name, runKey, err)
		}
		counts[name] = count
	}
	return counts, nil
}

// RollupsForRun returns the persisted rollups of one metric for one run.
func (db *DB) RollupsForRun(ctx context.Context, runKey uint, metric string) ([]models.DirectoryRollup, error) {
	var rollups []models.DirectoryRollup
	err := db.orm.WithContext(ctx).
		Where("run_key = ? AND metric = ?", runKey, metric).
		Find(&rollups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s rollups for run %d: %w", metric, runKey, err)
	}
	return rollups, nil
}
