package models

import (
	"github.com/flanksource/scanhub/identity"
)

// LayoutEntry is one file or directory of a repository's layout snapshot,
// scoped to a (repository_id, run_id) collection run. Entries are written
// once per run and never updated; a new run supersedes them with a fresh
// snapshot.
type LayoutEntry struct {
	ID           uint   `json:"-" gorm:"primaryKey;autoIncrement"`
	RepositoryID string `json:"repository_id" gorm:"column:repository_id;not null;uniqueIndex:idx_layout_scope"`
	RunID        string `json:"run_id" gorm:"column:run_id;not null;uniqueIndex:idx_layout_scope"`
	EntryID      string `json:"id" gorm:"column:entry_id;not null;uniqueIndex:idx_layout_scope"`
	ParentID     string `json:"parent_directory_id" gorm:"column:parent_directory_id;index"`
	RelativePath string `json:"relative_path" gorm:"column:relative_path;not null;index"`
}

func (LayoutEntry) TableName() string {
	return "layout_entries"
}

// IsDir reports whether the entry identifies a directory.
func (e *LayoutEntry) IsDir() bool {
	return identity.ID(e.EntryID).Kind() == identity.Directory
}
