// Package golangci ingests golangci-lint JSON reports as lint violations.
package golangci

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/flanksource/scanhub/identity"
	"github.com/flanksource/scanhub/ingest"
	"github.com/flanksource/scanhub/internal/warehouse"
	"github.com/flanksource/scanhub/models"
)

// ToolName matches the envelope metadata tool_name this strategy handles.
const ToolName = "golangci-lint"

// Report is the golangci-lint --out-format=json payload.
type Report struct {
	Issues []Issue `json:"Issues"`
}

// Issue is a single golangci-lint finding.
type Issue struct {
	FromLinter string `json:"FromLinter"`
	Text       string `json:"Text"`
	Severity   string `json:"Severity"`
	Pos        struct {
		Filename string `json:"Filename"`
		Line     int    `json:"Line"`
		Column   int    `json:"Column"`
	} `json:"Pos"`
	LineRange *struct {
		From int `json:"From"`
		To   int `json:"To"`
	} `json:"LineRange,omitempty"`
}

// ToViolation converts an issue to the normalized entity.
func (i Issue) ToViolation() *models.LintViolation {
	start := i.Pos.Line
	end := i.Pos.Line
	if i.LineRange != nil {
		start = i.LineRange.From
		end = i.LineRange.To
	}
	return &models.LintViolation{
		FilePath:  identity.Normalize(i.Pos.Filename),
		RuleID:    i.FromLinter,
		Severity:  i.Severity,
		Message:   i.Text,
		LineStart: start,
		LineEnd:   end,
	}
}

func mapRecords(data json.RawMessage) ([]models.Record, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse golangci-lint report: %w", err)
	}
	records := make([]models.Record, 0, len(report.Issues))
	for _, issue := range report.Issues {
		records = append(records, issue.ToViolation())
	}
	return records, nil
}

func persist(tx *gorm.DB, rows []models.Record) error {
	violations := make([]*models.LintViolation, 0, len(rows))
	for _, row := range rows {
		v, ok := row.(*models.LintViolation)
		if !ok {
			return fmt.Errorf("golangci-lint persister got %T, want *models.LintViolation", row)
		}
		violations = append(violations, v)
	}
	return warehouse.InsertViolations(tx, violations)
}

// Strategy returns the ingestion strategy for golangci-lint envelopes.
// Violations are file findings, so the layout link is required: an issue
// referencing a path outside the tracked tree is dropped and logged.
func Strategy() ingest.Strategy {
	return ingest.Strategy{
		Tool:    ToolName,
		Family:  "lint_violation",
		Linkage: ingest.LinkRequired,
		Map:     mapRecords,
		Rules: ingest.RuleSet{
			ingest.RequiredString("file"),
			ingest.RequiredString("rule"),
			ingest.NonNegative("line_start"),
			ingest.BoundedPair("line_start", "line_end"),
			ingest.RepoRelativePath(),
		},
		Persist:      persist,
		RollupMetric: "lint_violations",
		RollupWeight: func(models.Record) int64 { return 1 },
	}
}
