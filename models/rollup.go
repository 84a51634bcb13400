package models

import (
	"fmt"
)

// DirectoryRollup is a per-directory aggregate of one metric for one run:
// the direct count covers entries immediately inside the directory, the
// recursive count the whole subtree. Invariants: recursive >= direct for
// every directory, and the recursive count at the layout root equals the
// run-level total.
type DirectoryRollup struct {
	ID             uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	RunKey         uint   `json:"-" gorm:"column:run_key;not null;index"`
	DirectoryID    string `json:"directory_id" gorm:"column:directory_id;not null;index"`
	DirectoryPath  string `json:"directory" gorm:"column:directory_path;not null"`
	Metric         string `json:"metric" gorm:"column:metric;not null"`
	DirectCount    int64  `json:"direct_count" gorm:"column:direct_count;not null"`
	RecursiveCount int64  `json:"recursive_count" gorm:"column:recursive_count;not null"`
}

func (DirectoryRollup) TableName() string {
	return "directory_rollups"
}

func (r DirectoryRollup) String() string {
	return fmt.Sprintf("%s %s direct=%d recursive=%d", r.DirectoryPath, r.Metric, r.DirectCount, r.RecursiveCount)
}
