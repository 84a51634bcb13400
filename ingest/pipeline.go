package ingest

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/commons/logger"
	"gorm.io/gorm"

	"github.com/flanksource/scanhub/internal/warehouse"
	"github.com/flanksource/scanhub/layout"
	"github.com/flanksource/scanhub/models"
	"github.com/flanksource/scanhub/rollup"
)

// State is the pipeline position an ingestion reached. Every ingestion runs
// the five steps strictly in order; each step's output is the next step's
// only input.
type State string

const (
	StateUnwrapped State = "UNWRAPPED"
	StateResolved  State = "RESOLVED"
	StateValidated State = "VALIDATED"
	StateDeduped   State = "DEDUPED"
	StatePersisted State = "PERSISTED"
	StateFailed    State = "FAILED"
)

// Pipeline is the shared ingestion machine. One instance serves any number
// of concurrent run ingestions: it holds only the warehouse handle, the
// layout store and the read-only strategy table.
type Pipeline struct {
	db         *warehouse.DB
	layouts    *layout.Store
	strategies *StrategyTable
	excludes   []string
}

// Option configures a pipeline at construction time.
type Option func(*Pipeline)

// WithExcludes skips records whose subject path matches any of the given
// doublestar globs. Skips are recoverable: logged, the batch shrinks, the
// run proceeds.
func WithExcludes(globs ...string) Option {
	return func(p *Pipeline) {
		p.excludes = append(p.excludes, globs...)
	}
}

// New creates a pipeline over the warehouse with the given strategy table.
func New(db *warehouse.DB, strategies *StrategyTable, opts ...Option) *Pipeline {
	p := &Pipeline{
		db:         db,
		layouts:    layout.NewStore(db),
		strategies: strategies,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result summarizes one run's ingestion.
type Result struct {
	Tool            string                 `json:"tool"`
	RunID           string                 `json:"run_id"`
	RepositoryID    string                 `json:"repository_id"`
	RunKey          uint                   `json:"-"`
	State           State                  `json:"state"`
	EnvelopeVersion models.EnvelopeVersion `json:"envelope_version"`
	Mapped          int                    `json:"mapped"`
	Persisted       int                    `json:"persisted"`
	RollupRows      int                    `json:"rollup_rows,omitempty"`
	Unresolved      []string               `json:"unresolved,omitempty"`
	Duplicates      []string               `json:"duplicates,omitempty"`
}

// Pretty returns a styled one-line ingestion summary.
func (r *Result) Pretty() api.Text {
	style := "text-green-600"
	status := "✅"
	if r.State == StateFailed {
		style = "text-red-600"
		status = "❌"
	}
	t := api.Text{}.Append(status+" "+r.Tool, style).
		Append(fmt.Sprintf(" %s/%s", r.RepositoryID, r.RunID), "text-gray-500").
		Append(fmt.Sprintf(" persisted=%d", r.Persisted))
	if len(r.Duplicates) > 0 {
		t = t.Append(fmt.Sprintf(" duplicates=%d", len(r.Duplicates)), "text-yellow-600")
	}
	if len(r.Unresolved) > 0 {
		t = t.Append(fmt.Sprintf(" unresolved=%d", len(r.Unresolved)), "text-yellow-600")
	}
	return t
}

// Ingest runs one envelope through unwrap, resolve, validate, dedupe and
// persist. Fatal errors (unrecognizable envelope, unknown tool, missing
// layout, quality gate rejection, storage failure) leave zero committed rows
// for the run and are returned alongside a Result in StateFailed.
// Recoverable conditions (unresolved paths under a required policy,
// duplicates) shrink the batch and are reported on the Result.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte) (*Result, error) {
	result := &Result{State: StateFailed}

	// Unwrap: resolve the envelope shape once, then hand the payload to the
	// tool's mapper.
	env, err := models.DecodeEnvelope(raw)
	if err != nil {
		return result, err
	}
	result.Tool = env.Metadata.ToolName
	result.RunID = env.Metadata.RunID
	result.RepositoryID = env.Metadata.RepositoryID
	result.EnvelopeVersion = env.Version

	strat, ok := p.strategies.Get(env.Metadata.ToolName)
	if !ok {
		return result, fmt.Errorf("no ingestion strategy registered for tool %q", env.Metadata.ToolName)
	}

	records, err := strat.Map(env.Data)
	if err != nil {
		return result, fmt.Errorf("failed to unwrap %s envelope: %w", strat.Tool, err)
	}
	result.Mapped = len(records)
	result.State = StateUnwrapped
	logger.Debugf("%s %s/%s: unwrapped %d %s records (%s envelope)",
		strat.Tool, result.RepositoryID, result.RunID, len(records), strat.Family, env.Version)

	// Resolve: every path goes through the run's layout snapshot. A missing
	// snapshot is a fatal ordering error, not a batch of misses.
	snapshot, err := p.layouts.Load(ctx, env.Metadata.RepositoryID, env.Metadata.RunID)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	resolved := p.resolve(strat, snapshot, records, result)
	result.State = StateResolved

	// Validate: all-or-nothing quality gate.
	if err := strat.Rules.Validate(resolved); err != nil {
		result.State = StateFailed
		return result, err
	}
	result.State = StateValidated

	// Deduplicate within the batch.
	kept, dropped := Dedupe(resolved, strat.Key)
	result.Duplicates = DroppedKeys(dropped)
	result.State = StateDeduped

	rollups, err := p.computeRollups(strat, snapshot, kept)
	if err != nil {
		result.State = StateFailed
		return result, err
	}

	// Persist: run scope and all rows commit in one transaction.
	err = p.db.InTransaction(ctx, func(tx *gorm.DB) error {
		runKey, err := warehouse.GetOrCreateRunTx(tx, models.ToolRun{
			ToolName:     env.Metadata.ToolName,
			RunID:        env.Metadata.RunID,
			RepositoryID: env.Metadata.RepositoryID,
			Branch:       env.Metadata.Branch,
			Commit:       env.Metadata.Commit,
			CreatedAt:    env.Metadata.Timestamp,
		})
		if err != nil {
			return err
		}
		result.RunKey = runKey

		for _, row := range kept {
			row.SetRunKey(runKey)
		}
		if err := strat.Persist(tx, kept); err != nil {
			return err
		}

		for _, r := range rollups {
			r.RunKey = runKey
		}
		return warehouse.InsertRollups(tx, rollups)
	})
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("failed to persist %s run %s/%s: %w",
			strat.Tool, result.RepositoryID, result.RunID, err)
	}

	result.Persisted = len(kept)
	result.RollupRows = len(rollups)
	result.State = StatePersisted
	logger.Infof("%s %s/%s: persisted %d rows (%d duplicates, %d unresolved)",
		strat.Tool, result.RepositoryID, result.RunID, result.Persisted,
		len(result.Duplicates), len(result.Unresolved))
	return result, nil
}

// resolve links each record to its layout entry. Under LinkRequired a miss
// drops the record with a warning; under LinkOptional the record keeps a
// null file reference.
func (p *Pipeline) resolve(strat Strategy, snapshot *layout.Snapshot, records []models.Record, result *Result) []models.Record {
	resolved := make([]models.Record, 0, len(records))
	for _, record := range records {
		path := record.SubjectPath()
		if path != "" && p.excluded(path) {
			logger.Debugf("%s record excluded by pattern: path=%q", strat.Family, path)
			continue
		}
		if path != "" {
			if entry, ok := snapshot.Resolve(path); ok {
				record.LinkLayout(entry)
				resolved = append(resolved, record)
				continue
			}
		}
		if strat.Linkage == LinkRequired {
			result.Unresolved = append(result.Unresolved, path)
			logger.Warnf("%s record not in layout, dropped: path=%q key=%s", strat.Family, path, record.NaturalKey())
			continue
		}
		resolved = append(resolved, record)
	}
	return resolved
}

func (p *Pipeline) excluded(path string) bool {
	for _, glob := range p.excludes {
		if ok, err := doublestar.Match(glob, path); err == nil && ok {
			return true
		}
	}
	return false
}

func (p *Pipeline) computeRollups(strat Strategy, snapshot *layout.Snapshot, kept []models.Record) ([]*models.DirectoryRollup, error) {
	if strat.RollupMetric == "" {
		return nil, nil
	}
	weights := make(map[string]int64)
	for _, record := range kept {
		entry, ok := snapshot.Resolve(record.SubjectPath())
		if !ok {
			continue
		}
		weights[entry.EntryID] += strat.RollupWeight(record)
	}
	rollups, err := rollup.Compute(snapshot, strat.RollupMetric, weights)
	if err != nil {
		return nil, fmt.Errorf("failed to roll up %s: %w", strat.RollupMetric, err)
	}
	return rollups, nil
}
