// Package adapters assembles the per-tool ingestion strategies into the
// read-only strategy table the pipeline is parameterized by.
package adapters

import (
	"github.com/flanksource/scanhub/adapters/depscan"
	"github.com/flanksource/scanhub/adapters/gocover"
	"github.com/flanksource/scanhub/adapters/golangci"
	"github.com/flanksource/scanhub/adapters/trivy"
	"github.com/flanksource/scanhub/ingest"
)

// Strategies returns one strategy per supported tool.
func Strategies() []ingest.Strategy {
	return []ingest.Strategy{
		golangci.Strategy(),
		gocover.Strategy(),
		trivy.Strategy(),
		depscan.Strategy(),
	}
}

// NewTable builds the strategy table, dropping disabled tools and appending
// any configured extra quality rules (keyed by tool name) to the built-in
// rule sets. A nil enabled func keeps every tool.
func NewTable(enabled func(tool string) bool, extraRules map[string]ingest.RuleSet) (*ingest.StrategyTable, error) {
	var strategies []ingest.Strategy
	for _, s := range Strategies() {
		if enabled != nil && !enabled(s.Tool) {
			continue
		}
		if rules, ok := extraRules[s.Tool]; ok {
			s.Rules = append(s.Rules, rules...)
		}
		strategies = append(strategies, s)
	}
	return ingest.NewStrategyTable(strategies...)
}
