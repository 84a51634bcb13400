package models

import (
	"fmt"
	"strconv"

	"github.com/flanksource/clicky/api"
)

// LintViolation is a single rule violation reported by a linter. The
// natural key (file, rule, line range) is what the deduplication engine
// keys on; FileID/DirectoryID are resolved against the run's layout
// snapshot and required for persistence.
type LintViolation struct {
	ID          uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	RunKey      uint    `json:"-" gorm:"column:run_key;not null;index"`
	FileID      *string `json:"file_id,omitempty" gorm:"column:file_id;index"`
	DirectoryID *string `json:"directory_id,omitempty" gorm:"column:directory_id;index"`
	FilePath    string  `json:"file" gorm:"column:file_path;not null;index"`
	RuleID      string  `json:"rule" gorm:"column:rule_id;not null"`
	Severity    string  `json:"severity,omitempty" gorm:"column:severity"`
	Message     string  `json:"message,omitempty" gorm:"column:message"`
	LineStart   int     `json:"line_start" gorm:"column:line_start;not null"`
	LineEnd     int     `json:"line_end" gorm:"column:line_end;not null"`
}

func (LintViolation) TableName() string {
	return "lint_violations"
}

func (v *LintViolation) Family() string { return "lint_violation" }

func (v *LintViolation) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%d|%d", v.FilePath, v.RuleID, v.LineStart, v.LineEnd)
}

func (v *LintViolation) SubjectPath() string { return v.FilePath }

func (v *LintViolation) LinkLayout(entry *LayoutEntry) {
	id := entry.EntryID
	v.FileID = &id
	if entry.ParentID != "" {
		parent := entry.ParentID
		v.DirectoryID = &parent
	}
}

func (v *LintViolation) SetRunKey(key uint) { v.RunKey = key }

func (v *LintViolation) AsMap() map[string]any {
	return map[string]any{
		"file":       v.FilePath,
		"rule":       v.RuleID,
		"severity":   v.Severity,
		"message":    v.Message,
		"line_start": v.LineStart,
		"line_end":   v.LineEnd,
	}
}

func (v LintViolation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.FilePath, v.LineStart, v.Message, v.RuleID)
}

// Pretty returns a styled representation for tree and summary output.
func (v LintViolation) Pretty() api.Text {
	return api.Text{}.
		Append(v.FilePath, "text-gray-500").
		Append(":").
		Append(strconv.Itoa(v.LineStart)).
		Append(" "+v.Message, "text-red-600").
		Append(" ("+v.RuleID+")", "text-gray-400")
}
