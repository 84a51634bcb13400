package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeVersion tags the wire shape an envelope arrived in. The shape is
// resolved exactly once when the envelope is decoded; adapters only ever see
// the normalized form.
type EnvelopeVersion string

const (
	// EnvelopeV1 is the current nested {"metadata": {...}, "data": {...}} shape.
	EnvelopeV1 EnvelopeVersion = "v1"
	// EnvelopeLegacyResults wraps the payload in a top-level "results" key with
	// the metadata fields flattened beside it.
	EnvelopeLegacyResults EnvelopeVersion = "legacy-results"
	// EnvelopeLegacyFlat mixes metadata fields and payload in one flat object.
	EnvelopeLegacyFlat EnvelopeVersion = "legacy-flat"
)

// RunMetadata identifies the tool run an envelope belongs to. ToolName,
// RunID and RepositoryID are mandatory: they select the adapter and locate
// the layout snapshot.
type RunMetadata struct {
	ToolName      string    `json:"tool_name"`
	ToolVersion   string    `json:"tool_version,omitempty"`
	RunID         string    `json:"run_id"`
	RepositoryID  string    `json:"repo_id"`
	Branch        string    `json:"branch,omitempty"`
	Commit        string    `json:"commit,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
	SchemaVersion string    `json:"schema_version,omitempty"`
}

// Envelope is the normalized wrapper every tool output is decoded into
// before ingestion.
type Envelope struct {
	Version  EnvelopeVersion `json:"version"`
	Metadata RunMetadata     `json:"metadata"`
	Data     json.RawMessage `json:"data"`
}

// rawMetadata tolerates both RFC 3339 strings and missing timestamps.
type rawMetadata struct {
	ToolName      string `json:"tool_name"`
	ToolVersion   string `json:"tool_version"`
	RunID         string `json:"run_id"`
	RepositoryID  string `json:"repo_id"`
	Branch        string `json:"branch"`
	Commit        string `json:"commit"`
	Timestamp     string `json:"timestamp"`
	SchemaVersion string `json:"schema_version"`
}

func (m rawMetadata) toMetadata() RunMetadata {
	meta := RunMetadata{
		ToolName:      m.ToolName,
		ToolVersion:   m.ToolVersion,
		RunID:         m.RunID,
		RepositoryID:  m.RepositoryID,
		Branch:        m.Branch,
		Commit:        m.Commit,
		SchemaVersion: m.SchemaVersion,
	}
	if m.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, m.Timestamp); err == nil {
			meta.Timestamp = ts
		}
	}
	return meta
}

// DecodeEnvelope resolves the envelope shape and returns the normalized
// envelope. An input with no recognizable payload shape or without the
// mandatory metadata fields is a fatal ingestion error.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var probe struct {
		Metadata *rawMetadata    `json:"metadata"`
		Data     json.RawMessage `json:"data"`
		Results  json.RawMessage `json:"results"`
		rawMetadata
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("envelope is not valid JSON: %w", err)
	}

	var env Envelope
	switch {
	case probe.Metadata != nil && len(probe.Data) > 0:
		env = Envelope{Version: EnvelopeV1, Metadata: probe.Metadata.toMetadata(), Data: probe.Data}
	case len(probe.Results) > 0 && probe.ToolName != "":
		env = Envelope{Version: EnvelopeLegacyResults, Metadata: probe.rawMetadata.toMetadata(), Data: probe.Results}
	case probe.ToolName != "":
		env = Envelope{Version: EnvelopeLegacyFlat, Metadata: probe.rawMetadata.toMetadata(), Data: raw}
	default:
		return nil, fmt.Errorf("envelope has no recognizable payload shape")
	}

	if err := env.Metadata.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Validate checks the fields ingestion cannot proceed without.
func (m RunMetadata) Validate() error {
	if m.ToolName == "" {
		return fmt.Errorf("envelope metadata is missing tool_name")
	}
	if m.RunID == "" {
		return fmt.Errorf("envelope metadata is missing run_id")
	}
	if m.RepositoryID == "" {
		return fmt.Errorf("envelope metadata is missing repo_id")
	}
	return nil
}
