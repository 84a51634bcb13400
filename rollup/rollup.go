// Package rollup derives per-directory aggregates from a batch of resolved
// records and the run's layout snapshot.
package rollup

import (
	"fmt"
	"sort"

	"github.com/flanksource/scanhub/identity"
	"github.com/flanksource/scanhub/layout"
	"github.com/flanksource/scanhub/models"
)

// maxDepth bounds the ancestor walk so a corrupt parent chain cannot loop
// forever.
const maxDepth = 4096

// Compute aggregates per-file weights into one rollup row per directory in
// the snapshot. Direct counts cover files immediately inside a directory;
// recursive counts the whole subtree. Directories with no findings get a
// zero row, so every directory of the run has a rollup.
func Compute(snapshot *layout.Snapshot, metric string, weights map[string]int64) ([]*models.DirectoryRollup, error) {
	direct := make(map[string]int64)
	recursive := make(map[string]int64)

	for fileID, weight := range weights {
		entry, ok := snapshot.ByID(fileID)
		if !ok {
			return nil, fmt.Errorf("rollup weight references %s which is not in the layout", fileID)
		}
		direct[entry.ParentID] += weight

		depth := 0
		for cur := entry.ParentID; cur != ""; depth++ {
			if depth > maxDepth {
				return nil, fmt.Errorf("parent chain of %s exceeds %d levels", fileID, maxDepth)
			}
			recursive[cur] += weight
			parent, ok := snapshot.ByID(cur)
			if !ok {
				return nil, fmt.Errorf("directory %s referenced as parent is not in the layout", cur)
			}
			cur = parent.ParentID
		}
	}

	var rollups []*models.DirectoryRollup
	for _, entry := range snapshot.Entries() {
		if !entry.IsDir() {
			continue
		}
		rollups = append(rollups, &models.DirectoryRollup{
			DirectoryID:    entry.EntryID,
			DirectoryPath:  entry.RelativePath,
			Metric:         metric,
			DirectCount:    direct[entry.EntryID],
			RecursiveCount: recursive[entry.EntryID],
		})
	}
	sort.Slice(rollups, func(i, j int) bool {
		return rollups[i].DirectoryPath < rollups[j].DirectoryPath
	})

	if err := Verify(rollups, Total(weights)); err != nil {
		return nil, err
	}
	return rollups, nil
}

// Total sums all weights; the run-level total the root rollup must match.
func Total(weights map[string]int64) int64 {
	var total int64
	for _, w := range weights {
		total += w
	}
	return total
}

// Verify enforces the rollup invariants: recursive >= direct for every
// directory, and the root's recursive count equals the run total.
func Verify(rollups []*models.DirectoryRollup, runTotal int64) error {
	rootSeen := false
	for _, r := range rollups {
		if r.RecursiveCount < r.DirectCount {
			return fmt.Errorf("directory %s: recursive %s count %d is below direct count %d",
				r.DirectoryPath, r.Metric, r.RecursiveCount, r.DirectCount)
		}
		if r.DirectoryID == identity.RootID.String() {
			rootSeen = true
			if r.RecursiveCount != runTotal {
				return fmt.Errorf("root recursive %s count %d does not match run total %d",
					r.Metric, r.RecursiveCount, runTotal)
			}
		}
	}
	if !rootSeen && runTotal > 0 {
		return fmt.Errorf("layout has no root directory entry to roll up %d findings into", runTotal)
	}
	return nil
}
