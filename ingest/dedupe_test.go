package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/scanhub/models"
)

func violation(file, rule string, line int) *models.LintViolation {
	return &models.LintViolation{FilePath: file, RuleID: rule, LineStart: line, LineEnd: line}
}

func TestDedupeFirstOccurrenceWins(t *testing.T) {
	first := violation("src/app.py", "errcheck", 10)
	first.Message = "first"
	second := violation("src/app.py", "errcheck", 10)
	second.Message = "second"

	kept, dropped := Dedupe([]models.Record{first, second}, nil)
	require.Len(t, kept, 1)
	require.Len(t, dropped, 1)
	assert.Equal(t, "first", kept[0].(*models.LintViolation).Message)
	assert.Equal(t, "second", dropped[0].(*models.LintViolation).Message)
}

func TestDedupeDistinctKeysSurvive(t *testing.T) {
	rows := []models.Record{
		violation("src/app.py", "errcheck", 10),
		violation("src/app.py", "errcheck", 11),
		violation("src/app.py", "govet", 10),
		violation("src/other.py", "errcheck", 10),
	}
	kept, dropped := Dedupe(rows, nil)
	assert.Len(t, kept, 4)
	assert.Empty(t, dropped)
}

func TestDedupeCustomKey(t *testing.T) {
	rows := []models.Record{
		violation("src/app.py", "errcheck", 10),
		violation("src/app.py", "errcheck", 99),
	}
	// Key on file+rule only: the second line collapses into the first.
	kept, dropped := Dedupe(rows, func(r models.Record) string {
		v := r.(*models.LintViolation)
		return v.FilePath + "|" + v.RuleID
	})
	assert.Len(t, kept, 1)
	assert.Len(t, dropped, 1)
}

func TestDedupeEmptyBatch(t *testing.T) {
	kept, dropped := Dedupe(nil, nil)
	assert.Empty(t, kept)
	assert.Empty(t, dropped)
}

func TestDroppedKeys(t *testing.T) {
	_, dropped := Dedupe([]models.Record{
		violation("src/app.py", "errcheck", 10),
		violation("src/app.py", "errcheck", 10),
	}, nil)
	keys := DroppedKeys(dropped)
	require.Len(t, keys, 1)
	assert.Equal(t, "src/app.py|errcheck|10|10", keys[0])
}
