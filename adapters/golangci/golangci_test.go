package golangci

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/scanhub/ingest"
	"github.com/flanksource/scanhub/models"
)

func TestMapRecords(t *testing.T) {
	data := json.RawMessage(`{"Issues": [
		{
			"FromLinter": "errcheck",
			"Text": "Error return value is not checked",
			"Severity": "warning",
			"Pos": {"Filename": "./src/app.go", "Line": 42, "Column": 3}
		},
		{
			"FromLinter": "gocritic",
			"Text": "block is empty",
			"Pos": {"Filename": "main.go", "Line": 7, "Column": 1},
			"LineRange": {"From": 7, "To": 9}
		}
	]}`)

	records, err := mapRecords(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0].(*models.LintViolation)
	assert.Equal(t, "src/app.go", first.FilePath)
	assert.Equal(t, "errcheck", first.RuleID)
	assert.Equal(t, "warning", first.Severity)
	assert.Equal(t, 42, first.LineStart)
	assert.Equal(t, 42, first.LineEnd)

	second := records[1].(*models.LintViolation)
	assert.Equal(t, 7, second.LineStart)
	assert.Equal(t, 9, second.LineEnd)
}

func TestMapRecordsEmptyReport(t *testing.T) {
	records, err := mapRecords(json.RawMessage(`{"Issues": []}`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMapRecordsInvalidPayload(t *testing.T) {
	_, err := mapRecords(json.RawMessage(`{"Issues": "nope"}`))
	assert.Error(t, err)
}

func TestStrategyShape(t *testing.T) {
	s := Strategy()
	assert.Equal(t, ToolName, s.Tool)
	assert.Equal(t, ingest.LinkRequired, s.Linkage)
	assert.Equal(t, "lint_violations", s.RollupMetric)
	assert.NotEmpty(t, s.Rules)
	assert.Equal(t, int64(1), s.RollupWeight(&models.LintViolation{}))
}

func TestNaturalKeyCoversLineRange(t *testing.T) {
	records, err := mapRecords(json.RawMessage(`{"Issues": [
		{"FromLinter": "errcheck", "Pos": {"Filename": "a.go", "Line": 1}},
		{"FromLinter": "errcheck", "Pos": {"Filename": "a.go", "Line": 2}}
	]}`))
	require.NoError(t, err)
	assert.NotEqual(t, records[0].NaturalKey(), records[1].NaturalKey())
}
