package ingest

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/flanksource/scanhub/models"
)

// LinkPolicy declares how an entity family treats layout resolution misses.
// The policy is part of the strategy, not inferred at call sites.
type LinkPolicy string

const (
	// LinkRequired drops (and logs) records whose path is not in the layout.
	LinkRequired LinkPolicy = "required"
	// LinkOptional persists such records with a null file reference.
	LinkOptional LinkPolicy = "optional"
)

// Strategy is the per-tool configuration the generic pipeline is
// parameterized by: entity mapper, dedup key, quality rules, layout linkage
// policy and persister. One pipeline, many strategies; adding a tool never
// means another pipeline.
type Strategy struct {
	// Tool selects this strategy by envelope tool_name.
	Tool string

	// Family names the entity family the mapper produces.
	Family string

	// Linkage declares the resolution miss policy for the family.
	Linkage LinkPolicy

	// Map translates the envelope's data payload into normalized records.
	// Pure; no I/O.
	Map func(data json.RawMessage) ([]models.Record, error)

	// Key overrides the records' natural key for deduplication. Nil uses
	// Record.NaturalKey.
	Key KeyFunc

	// Rules is the quality gate rule set for the family.
	Rules RuleSet

	// Persist bulk-inserts the final rows inside the run's transaction.
	Persist func(tx *gorm.DB, rows []models.Record) error

	// RollupMetric, when set, makes the pipeline compute and persist
	// per-directory rollups of RollupWeight over resolved records.
	RollupMetric string
	RollupWeight func(models.Record) int64
}

func (s Strategy) validate() error {
	if s.Tool == "" {
		return fmt.Errorf("strategy has no tool name")
	}
	if s.Family == "" {
		return fmt.Errorf("strategy %q has no entity family", s.Tool)
	}
	if s.Linkage != LinkRequired && s.Linkage != LinkOptional {
		return fmt.Errorf("strategy %q has invalid link policy %q", s.Tool, s.Linkage)
	}
	if s.Map == nil {
		return fmt.Errorf("strategy %q has no mapper", s.Tool)
	}
	if s.Persist == nil {
		return fmt.Errorf("strategy %q has no persister", s.Tool)
	}
	if s.RollupMetric != "" && s.RollupWeight == nil {
		return fmt.Errorf("strategy %q declares rollup metric %q without a weight function", s.Tool, s.RollupMetric)
	}
	return nil
}

// StrategyTable is the read-only strategy lookup keyed by tool name. Built
// once at startup; no mutation afterwards, so concurrent ingestions can
// share it freely.
type StrategyTable struct {
	strategies map[string]Strategy
}

// NewStrategyTable validates and indexes the given strategies.
func NewStrategyTable(strategies ...Strategy) (*StrategyTable, error) {
	table := &StrategyTable{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := table.strategies[s.Tool]; dup {
			return nil, fmt.Errorf("duplicate strategy for tool %q", s.Tool)
		}
		table.strategies[s.Tool] = s
	}
	return table, nil
}

// Get returns the strategy registered for a tool.
func (t *StrategyTable) Get(tool string) (Strategy, bool) {
	s, ok := t.strategies[tool]
	return s, ok
}

// Tools returns the registered tool names.
func (t *StrategyTable) Tools() []string {
	names := make([]string, 0, len(t.strategies))
	for name := range t.strategies {
		names = append(names, name)
	}
	return names
}
