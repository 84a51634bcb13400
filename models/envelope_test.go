package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelopeV1(t *testing.T) {
	raw := []byte(`{
		"metadata": {
			"tool_name": "golangci-lint",
			"tool_version": "1.61.0",
			"run_id": "run-1",
			"repo_id": "repo-1",
			"branch": "main",
			"commit": "abc1234",
			"timestamp": "2026-08-20T10:30:00Z",
			"schema_version": "1.0"
		},
		"data": {"Issues": []}
	}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeV1, env.Version)
	assert.Equal(t, "golangci-lint", env.Metadata.ToolName)
	assert.Equal(t, "run-1", env.Metadata.RunID)
	assert.Equal(t, "repo-1", env.Metadata.RepositoryID)
	assert.Equal(t, "main", env.Metadata.Branch)
	assert.Equal(t, time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC), env.Metadata.Timestamp)
	assert.JSONEq(t, `{"Issues": []}`, string(env.Data))
}

func TestDecodeEnvelopeLegacyResults(t *testing.T) {
	raw := []byte(`{
		"tool_name": "trivy",
		"run_id": "run-1",
		"repo_id": "repo-1",
		"results": {"Results": []}
	}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeLegacyResults, env.Version)
	assert.Equal(t, "trivy", env.Metadata.ToolName)
	assert.JSONEq(t, `{"Results": []}`, string(env.Data))
}

func TestDecodeEnvelopeLegacyFlat(t *testing.T) {
	raw := []byte(`{
		"tool_name": "depscan",
		"run_id": "run-1",
		"repo_id": "repo-1",
		"manifest": "go.mod",
		"dependencies": []
	}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, EnvelopeLegacyFlat, env.Version)
	// The flat shape keeps the whole object as payload.
	assert.JSONEq(t, string(raw), string(env.Data))
}

func TestDecodeEnvelopeRejectsUnrecognizable(t *testing.T) {
	for name, raw := range map[string]string{
		"empty object": `{}`,
		"no metadata":  `{"data": {"Issues": []}}`,
		"not json":     `not json at all`,
	} {
		_, err := DecodeEnvelope([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestDecodeEnvelopeRequiresScopeFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing tool_name", `{"metadata": {"run_id": "r", "repo_id": "p"}, "data": {}}`},
		{"missing run_id", `{"metadata": {"tool_name": "t", "repo_id": "p"}, "data": {}}`},
		{"missing repo_id", `{"metadata": {"tool_name": "t", "run_id": "r"}, "data": {}}`},
	}
	for _, tt := range tests {
		_, err := DecodeEnvelope([]byte(tt.raw))
		assert.Error(t, err, tt.name)
	}
}

func TestDecodeEnvelopeToleratesBadTimestamp(t *testing.T) {
	raw := []byte(`{
		"metadata": {"tool_name": "t", "run_id": "r", "repo_id": "p", "timestamp": "yesterday"},
		"data": {}
	}`)
	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.True(t, env.Metadata.Timestamp.IsZero())
}
