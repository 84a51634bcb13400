package ingest

import (
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/scanhub/models"
)

// KeyFunc derives the dedup key for one record. Tool strategies may override
// the record's own natural key.
type KeyFunc func(models.Record) string

// NaturalKey is the default KeyFunc.
func NaturalKey(r models.Record) string {
	return r.NaturalKey()
}

// Dedupe suppresses duplicate rows within one ingestion batch. First
// occurrence wins; later duplicates are returned in dropped and logged with
// their path and natural key for auditing. This is a safety net for tools
// that emit the same finding twice, not a replay mechanism; replay safety
// belongs to the run registry.
func Dedupe(rows []models.Record, key KeyFunc) (kept, dropped []models.Record) {
	if key == nil {
		key = NaturalKey
	}

	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, dup := seen[k]; dup {
			dropped = append(dropped, row)
			logger.Warnf("duplicate %s dropped: path=%s key=%s", row.Family(), row.SubjectPath(), row.NaturalKey())
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, row)
	}
	return kept, dropped
}

// DroppedKeys returns the natural keys of dropped records, for result
// summaries.
func DroppedKeys(dropped []models.Record) []string {
	return lo.Map(dropped, func(r models.Record, _ int) string {
		return r.NaturalKey()
	})
}
