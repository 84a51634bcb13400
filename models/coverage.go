package models

import (
	"fmt"
)

// CoverageRecord is per-file statement coverage. Covered can never exceed
// Total and Percent is always in [0, 100]; both are enforced by the quality
// gate before persistence. Coverage is only meaningful for files inside the
// tracked tree, so the layout link is required.
type CoverageRecord struct {
	ID                uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	RunKey            uint    `json:"-" gorm:"column:run_key;not null;index"`
	FileID            *string `json:"file_id,omitempty" gorm:"column:file_id;index"`
	DirectoryID       *string `json:"directory_id,omitempty" gorm:"column:directory_id;index"`
	FilePath          string  `json:"file" gorm:"column:file_path;not null;index"`
	CoveredStatements int     `json:"covered_statements" gorm:"column:covered_statements;not null"`
	TotalStatements   int     `json:"total_statements" gorm:"column:total_statements;not null"`
	Percent           float64 `json:"percent" gorm:"column:percent;not null"`
}

func (CoverageRecord) TableName() string {
	return "coverage_records"
}

func (c *CoverageRecord) Family() string { return "coverage_record" }

func (c *CoverageRecord) NaturalKey() string { return c.FilePath }

func (c *CoverageRecord) SubjectPath() string { return c.FilePath }

func (c *CoverageRecord) LinkLayout(entry *LayoutEntry) {
	id := entry.EntryID
	c.FileID = &id
	if entry.ParentID != "" {
		parent := entry.ParentID
		c.DirectoryID = &parent
	}
}

func (c *CoverageRecord) SetRunKey(key uint) { c.RunKey = key }

func (c *CoverageRecord) AsMap() map[string]any {
	return map[string]any{
		"file":               c.FilePath,
		"covered_statements": c.CoveredStatements,
		"total_statements":   c.TotalStatements,
		"percent":            c.Percent,
	}
}

func (c CoverageRecord) String() string {
	return fmt.Sprintf("%s %d/%d (%.1f%%)", c.FilePath, c.CoveredStatements, c.TotalStatements, c.Percent)
}
