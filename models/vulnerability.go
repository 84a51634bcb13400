package models

import (
	"fmt"
)

// Vulnerability is a known-vulnerable package occurrence reported by a
// security scanner. The subject is a dependency manifest (go.mod,
// package-lock.json), so the layout link is optional: the manifest may be
// outside the tracked tree and the row is still meaningful.
type Vulnerability struct {
	ID               uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	RunKey           uint    `json:"-" gorm:"column:run_key;not null;index"`
	FileID           *string `json:"file_id,omitempty" gorm:"column:file_id;index"`
	ManifestPath     string  `json:"manifest" gorm:"column:manifest_path;not null;index"`
	VulnerabilityID  string  `json:"vulnerability_id" gorm:"column:vulnerability_id;not null"`
	PackageName      string  `json:"package" gorm:"column:package_name;not null"`
	InstalledVersion string  `json:"installed_version,omitempty" gorm:"column:installed_version"`
	FixedVersion     string  `json:"fixed_version,omitempty" gorm:"column:fixed_version"`
	Severity         string  `json:"severity,omitempty" gorm:"column:severity"`
	Score            float64 `json:"score,omitempty" gorm:"column:score"`
}

func (Vulnerability) TableName() string {
	return "vulnerabilities"
}

func (v *Vulnerability) Family() string { return "vulnerability" }

func (v *Vulnerability) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s", v.ManifestPath, v.VulnerabilityID, v.PackageName)
}

func (v *Vulnerability) SubjectPath() string { return v.ManifestPath }

func (v *Vulnerability) LinkLayout(entry *LayoutEntry) {
	id := entry.EntryID
	v.FileID = &id
}

func (v *Vulnerability) SetRunKey(key uint) { v.RunKey = key }

func (v *Vulnerability) AsMap() map[string]any {
	return map[string]any{
		"manifest":          v.ManifestPath,
		"vulnerability_id":  v.VulnerabilityID,
		"package":           v.PackageName,
		"installed_version": v.InstalledVersion,
		"fixed_version":     v.FixedVersion,
		"severity":          v.Severity,
		"score":             v.Score,
	}
}

func (v Vulnerability) String() string {
	return fmt.Sprintf("%s %s@%s (%s)", v.VulnerabilityID, v.PackageName, v.InstalledVersion, v.Severity)
}
