package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/flanksource/scanhub/models"
)

func validStrategy(tool string) Strategy {
	return Strategy{
		Tool:    tool,
		Family:  "lint_violation",
		Linkage: LinkRequired,
		Map:     func(json.RawMessage) ([]models.Record, error) { return nil, nil },
		Persist: func(*gorm.DB, []models.Record) error { return nil },
	}
}

func TestNewStrategyTable(t *testing.T) {
	table, err := NewStrategyTable(validStrategy("a"), validStrategy("b"))
	require.NoError(t, err)

	_, ok := table.Get("a")
	assert.True(t, ok)
	_, ok = table.Get("unknown")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"a", "b"}, table.Tools())
}

func TestNewStrategyTableRejectsDuplicates(t *testing.T) {
	_, err := NewStrategyTable(validStrategy("a"), validStrategy("a"))
	assert.ErrorContains(t, err, "duplicate")
}

func TestStrategyValidation(t *testing.T) {
	broken := func(mutate func(*Strategy)) Strategy {
		s := validStrategy("t")
		mutate(&s)
		return s
	}

	tests := []struct {
		name     string
		strategy Strategy
	}{
		{"no tool", broken(func(s *Strategy) { s.Tool = "" })},
		{"no family", broken(func(s *Strategy) { s.Family = "" })},
		{"bad linkage", broken(func(s *Strategy) { s.Linkage = "sometimes" })},
		{"no mapper", broken(func(s *Strategy) { s.Map = nil })},
		{"no persister", broken(func(s *Strategy) { s.Persist = nil })},
		{"metric without weight", broken(func(s *Strategy) { s.RollupMetric = "m" })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStrategyTable(tt.strategy)
			assert.Error(t, err)
		})
	}
}
