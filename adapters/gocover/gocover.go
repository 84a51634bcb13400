// Package gocover ingests per-file statement coverage summaries.
package gocover

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
const ToolName = "gocover"

// Report is the coverage exporter payload: one summary per file.
type Report struct {
	Mode  string        `json:"mode,omitempty"`
	Files []FileSummary `json:"files"`
}

// FileSummary is statement coverage for one file.
type FileSummary struct {
	Path              string `json:"path"`
	CoveredStatements int    `json:"covered_statements"`
	TotalStatements   int    `json:"total_statements"`
}

func (f FileSummary) toEntity() *models.CoverageRecord {
	percent := 0.0
	if f.TotalStatements > 0 {
		percent = float64(f.CoveredStatements) / float64(f.TotalStatements) * 100
	}
	return &models.CoverageRecord{
		FilePath:          identity.Normalize(f.Path),
		CoveredStatements: f.CoveredStatements,
		TotalStatements:   f.TotalStatements,
		Percent:           percent,
	}
}

func mapRecords(data json.RawMessage) ([]models.Record, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse coverage report: %w", err)
	}
	records := make([]models.Record, 0, len(report.Files))
	for _, file := range report.Files {
		records = append(records, file.toEntity())
	}
	return records, nil
}

func persist(tx *gorm.DB, rows []models.Record) error {
	coverage := make([]*models.CoverageRecord, 0, len(rows))
	for _, row := range rows {
		c, ok := row.(*models.CoverageRecord)
		if !ok {
			return fmt.Errorf("gocover persister got %T, want *models.CoverageRecord", row)
		}
		coverage = append(coverage, c)
	}
	return warehouse.InsertCoverage(tx, coverage)
}

// Strategy returns the ingestion strategy for coverage envelopes. Coverage
// only makes sense for tracked files, so the layout link is required, and
// total statements roll up per directory.
func Strategy() ingest.Strategy {
	return ingest.Strategy{
		Tool:    ToolName,
		Family:  "coverage_record",
		Linkage: ingest.LinkRequired,
		Map:     mapRecords,
		Rules: ingest.RuleSet{
			ingest.RequiredString("file"),
			ingest.NonNegative("covered_statements"),
			ingest.NonNegative("total_statements"),
			ingest.BoundedPair("covered_statements", "total_statements"),
			ingest.PercentRange("percent"),
			ingest.RepoRelativePath(),
		},
		Persist:      persist,
		RollupMetric: "total_statements",
		RollupWeight: func(r models.Record) int64 {
			c, ok := r.(*models.CoverageRecord)
			if !ok {
				return 0
			}
			return int64(c.TotalStatements)
		},
	}
}
