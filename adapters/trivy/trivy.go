// Package trivy ingests trivy filesystem-scan reports as vulnerabilities.
package trivy

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
const ToolName = "trivy"

// Report is the trivy JSON payload.
type Report struct {
	Results []Result `json:"Results"`
}

// Result groups vulnerabilities by scan target, typically a dependency
// manifest like go.mod or package-lock.json.
type Result struct {
	Target          string          `json:"Target"`
	Class           string          `json:"Class,omitempty"`
	Vulnerabilities []Vulnerability `json:"Vulnerabilities"`
}

// Vulnerability is a single known-vulnerable package occurrence.
type Vulnerability struct {
	VulnerabilityID  string `json:"VulnerabilityID"`
	PkgName          string `json:"PkgName"`
	InstalledVersion string `json:"InstalledVersion"`
	FixedVersion     string `json:"FixedVersion,omitempty"`
	Severity         string `json:"Severity"`
	CVSS             map[string]struct {
		V3Score float64 `json:"V3Score"`
	} `json:"CVSS,omitempty"`
}

// Score picks the highest CVSS v3 score across sources.
func (v Vulnerability) Score() float64 {
	var score float64
	for _, c := range v.CVSS {
		if c.V3Score > score {
			score = c.V3Score
		}
	}
	return score
}

func (v Vulnerability) toEntity(target string) *models.Vulnerability {
	return &models.Vulnerability{
		ManifestPath:     identity.Normalize(target),
		VulnerabilityID:  v.VulnerabilityID,
		PackageName:      v.PkgName,
		InstalledVersion: v.InstalledVersion,
		FixedVersion:     v.FixedVersion,
		Severity:         v.Severity,
		Score:            v.Score(),
	}
}

func mapRecords(data json.RawMessage) ([]models.Record, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse trivy report: %w", err)
	}
	var records []models.Record
	for _, result := range report.Results {
		for _, vuln := range result.Vulnerabilities {
			records = append(records, vuln.toEntity(result.Target))
		}
	}
	return records, nil
}

func persist(tx *gorm.DB, rows []models.Record) error {
	vulns := make([]*models.Vulnerability, 0, len(rows))
	for _, row := range rows {
		v, ok := row.(*models.Vulnerability)
		if !ok {
			return fmt.Errorf("trivy persister got %T, want *models.Vulnerability", row)
		}
		vulns = append(vulns, v)
	}
	return warehouse.InsertVulnerabilities(tx, vulns)
}

// Strategy returns the ingestion strategy for trivy envelopes. The subject
// is a manifest matched at a different granularity than source files, so the
// layout link is optional: a target outside the tracked tree persists with a
// null file reference.
func Strategy() ingest.Strategy {
	return ingest.Strategy{
		Tool:    ToolName,
		Family:  "vulnerability",
		Linkage: ingest.LinkOptional,
		Map:     mapRecords,
		Rules: ingest.RuleSet{
			ingest.RequiredString("vulnerability_id"),
			ingest.RequiredString("package"),
			ingest.InRange("score", 0, 10),
			ingest.RepoRelativePath(),
		},
		Persist: persist,
	}
}
