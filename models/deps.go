package models

import (
	"fmt"
)

// DependencyEdge is one dependency declared by a manifest, as reported by a
// dependency scanner. Manifest-scoped like Vulnerability: the layout link is
// optional.
type DependencyEdge struct {
	ID           uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	RunKey       uint    `json:"-" gorm:"column:run_key;not null;index"`
	FileID       *string `json:"file_id,omitempty" gorm:"column:file_id;index"`
	ManifestPath string  `json:"manifest" gorm:"column:manifest_path;not null;index"`
	Name         string  `json:"name" gorm:"column:name;not null"`
	Version      string  `json:"version,omitempty" gorm:"column:version"`
	Scope        string  `json:"scope,omitempty" gorm:"column:scope"`
	Direct       bool    `json:"direct" gorm:"column:direct;default:false"`
}

func (DependencyEdge) TableName() string {
	return "dependency_edges"
}

func (d *DependencyEdge) Family() string { return "dependency_edge" }

func (d *DependencyEdge) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s", d.ManifestPath, d.Name, d.Version)
}

func (d *DependencyEdge) SubjectPath() string { return d.ManifestPath }

func (d *DependencyEdge) LinkLayout(entry *LayoutEntry) {
	id := entry.EntryID
	d.FileID = &id
}

func (d *DependencyEdge) SetRunKey(key uint) { d.RunKey = key }

func (d *DependencyEdge) AsMap() map[string]any {
	return map[string]any{
		"manifest": d.ManifestPath,
		"name":     d.Name,
		"version":  d.Version,
		"scope":    d.Scope,
		"direct":   d.Direct,
	}
}

func (d DependencyEdge) String() string {
	return fmt.Sprintf("%s -> %s@%s", d.ManifestPath, d.Name, d.Version)
}
