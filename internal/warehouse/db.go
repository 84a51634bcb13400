package warehouse

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flanksource/scanhub/models"
)

// DB wraps the warehouse database. Each caller opens its own instance;
// there is no process-wide singleton, so independent ingestions only share
// state through the storage engine itself.
type DB struct {
	orm *gorm.DB
}

// Open creates or opens the warehouse database under dir and migrates the
// schema.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
	}
	return open(sqlite.Open(filepath.Join(dir, "warehouse.db")))
}

func open(dialector gorm.Dialector) (*DB, error) {
	orm, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse database: %w", err)
	}

	sqlDB, err := orm.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// WAL + busy timeout so concurrent run ingestions don't trip over each
	// other on SQLite's writer lock.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := migrate(orm); err != nil {
		return nil, fmt.Errorf("failed to migrate warehouse schema: %w", err)
	}

	return &DB{orm: orm}, nil
}

func migrate(orm *gorm.DB) error {
	// Dependencies first: runs and layout before the finding tables that
	// reference them.
	tables := []interface{}{
		&models.ToolRun{},
		&models.LayoutEntry{},
		&models.LintViolation{},
		&models.Vulnerability{},
		&models.CoverageRecord{},
		&models.DependencyEdge{},
		&models.DirectoryRollup{},
	}
	for _, table := range tables {
		if err := orm.AutoMigrate(table); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", table, err)
		}
	}
	return nil
}

// ORM exposes the underlying GORM handle for transaction scoping.
func (db *DB) ORM() *gorm.DB {
	return db.orm
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.orm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
