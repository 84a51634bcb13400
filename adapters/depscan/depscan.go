// Package depscan ingests dependency manifest scans as dependency edges.
package depscan

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
	"gorm.io/gorm"

	"github.com/flanksource/scanhub/identity"
	"github.com/flanksource/scanhub/ingest"
	"github.com/flanksource/scanhub/internal/warehouse"
	"github.com/flanksource/scanhub/models"
)

// ToolName matches the envelope metadata tool_name this strategy handles.
const ToolName = "depscan"

// Report is the dependency scanner payload: the declarations of one
// manifest.
type Report struct {
	Manifest     string       `json:"manifest"`
	Dependencies []Dependency `json:"dependencies"`
}

// Dependency is one declared dependency.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Scope   string `json:"scope,omitempty"`
	Direct  bool   `json:"direct,omitempty"`
}

// NormalizeVersion canonicalizes semver-shaped versions so the same
// dependency dedupes across "1.2.3" and "v1.2.3" spellings. Non-semver
// versions pass through unchanged.
func NormalizeVersion(version string) string {
	if version == "" {
		return ""
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return semver.Canonical(v)
	}
	return version
}

func (d Dependency) toEntity(manifest string) *models.DependencyEdge {
	return &models.DependencyEdge{
		ManifestPath: identity.Normalize(manifest),
		Name:         d.Name,
		Version:      NormalizeVersion(d.Version),
		Scope:        d.Scope,
		Direct:       d.Direct,
	}
}

func mapRecords(data json.RawMessage) ([]models.Record, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse dependency report: %w", err)
	}
	if report.Manifest == "" {
		return nil, fmt.Errorf("dependency report names no manifest")
	}
	records := make([]models.Record, 0, len(report.Dependencies))
	for _, dep := range report.Dependencies {
		records = append(records, dep.toEntity(report.Manifest))
	}
	return records, nil
}

func persist(tx *gorm.DB, rows []models.Record) error {
	edges := make([]*models.DependencyEdge, 0, len(rows))
	for _, row := range rows {
		e, ok := row.(*models.DependencyEdge)
		if !ok {
			return fmt.Errorf("depscan persister got %T, want *models.DependencyEdge", row)
		}
		edges = append(edges, e)
	}
	return warehouse.InsertDependencyEdges(tx, edges)
}

// Strategy returns the ingestion strategy for dependency-scan envelopes.
// Edges are manifest-scoped, so the layout link is optional.
func Strategy() ingest.Strategy {
	return ingest.Strategy{
		Tool:    ToolName,
		Family:  "dependency_edge",
		Linkage: ingest.LinkOptional,
		Map:     mapRecords,
		Rules: ingest.RuleSet{
			ingest.RequiredString("manifest"),
			ingest.RequiredString("name"),
			ingest.RepoRelativePath(),
		},
		Persist: persist,
	}
}
