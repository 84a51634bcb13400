package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/scanhub/ingest"
	"github.com/flanksource/scanhub/models"
)

func TestNewTableRegistersAllTools(t *testing.T) {
	table, err := NewTable(nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"golangci-lint", "gocover", "trivy", "depscan"},
		table.Tools())
}

func TestNewTableDropsDisabledTools(t *testing.T) {
	table, err := NewTable(func(tool string) bool { return tool != "trivy" }, nil)
	require.NoError(t, err)

	_, ok := table.Get("trivy")
	assert.False(t, ok)
	_, ok = table.Get("golangci-lint")
	assert.True(t, ok)
}

func TestNewTableAppendsExtraRules(t *testing.T) {
	extra := ingest.RuleSet{{
		Name:  "always-fails",
		Check: func(models.Record) string { return "nope" },
	}}
	baseline, err := NewTable(nil, nil)
	require.NoError(t, err)
	base, _ := baseline.Get("golangci-lint")

	table, err := NewTable(nil, map[string]ingest.RuleSet{"golangci-lint": extra})
	require.NoError(t, err)

	s, ok := table.Get("golangci-lint")
	require.True(t, ok)
	assert.Len(t, s.Rules, len(base.Rules)+1)
}
