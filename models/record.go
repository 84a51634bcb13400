package models

// Record is one normalized finding or metric row produced by a tool
// adapter, before it has been validated, deduplicated, and persisted.
// Implementations are plain structs; none of the methods perform I/O.
type Record interface {
	// Family names the entity family for logging and rule selection
	// (e.g. "lint_violation", "vulnerability").
	Family() string

	// NaturalKey is the tool-specific key duplicates are detected by
	// within one ingestion batch.
	NaturalKey() string

	// SubjectPath is the normalized repo-relative path the record is
	// about, or "" when the record is not path-addressable.
	SubjectPath() string

	// LinkLayout attaches the resolved layout identifiers. Called at most
	// once, with the entry resolved for SubjectPath.
	LinkLayout(entry *LayoutEntry)

	// SetRunKey scopes the record to its tool run before persistence.
	SetRunKey(key uint)

	// AsMap exposes the measured fields for rule evaluation and logging.
	AsMap() map[string]any
}
