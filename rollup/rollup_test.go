package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/scanhub/identity"
	"github.com/flanksource/scanhub/layout"
	"github.com/flanksource/scanhub/models"
)

func entry(path string, kind identity.Kind) models.LayoutEntry {
	parent := ""
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			parent = path[:i]
			break
		}
	}
	return models.LayoutEntry{
		EntryID:      identity.Identify(path, kind).String(),
		ParentID:     identity.Identify(parent, identity.Directory).String(),
		RelativePath: path,
	}
}

func testSnapshot() *layout.Snapshot {
	entries := []models.LayoutEntry{
		{EntryID: identity.RootID.String(), RelativePath: ""},
		entry("main.go", identity.File),
		entry("src", identity.Directory),
		entry("src/app.py", identity.File),
		entry("src/utils", identity.Directory),
		entry("src/utils/helpers.py", identity.File),
		entry("docs", identity.Directory),
	}
	return layout.NewSnapshot("repo-1", "run-1", entries)
}

func fileID(path string) string {
	return identity.Identify(path, identity.File).String()
}

func TestComputeRollups(t *testing.T) {
	snapshot := testSnapshot()
	weights := map[string]int64{
		fileID("main.go"):              1,
		fileID("src/app.py"):           2,
		fileID("src/utils/helpers.py"): 3,
	}

	rollups, err := Compute(snapshot, "lint_violations", weights)
	require.NoError(t, err)

	byPath := map[string]*models.DirectoryRollup{}
	for _, r := range rollups {
		byPath[r.DirectoryPath] = r
	}
	// One row per directory, empty directories included.
	require.Len(t, rollups, 4)

	assert.Equal(t, int64(1), byPath[""].DirectCount)
	assert.Equal(t, int64(6), byPath[""].RecursiveCount)
	assert.Equal(t, int64(2), byPath["src"].DirectCount)
	assert.Equal(t, int64(5), byPath["src"].RecursiveCount)
	assert.Equal(t, int64(3), byPath["src/utils"].DirectCount)
	assert.Equal(t, int64(3), byPath["src/utils"].RecursiveCount)
	assert.Zero(t, byPath["docs"].DirectCount)
	assert.Zero(t, byPath["docs"].RecursiveCount)

	for _, r := range rollups {
		assert.GreaterOrEqual(t, r.RecursiveCount, r.DirectCount, "directory %q", r.DirectoryPath)
	}
}

func TestComputeEmptyWeights(t *testing.T) {
	rollups, err := Compute(testSnapshot(), "lint_violations", nil)
	require.NoError(t, err)
	require.Len(t, rollups, 4)
	for _, r := range rollups {
		assert.Zero(t, r.DirectCount)
		assert.Zero(t, r.RecursiveCount)
	}
}

func TestComputeRejectsUnknownFile(t *testing.T) {
	_, err := Compute(testSnapshot(), "lint_violations", map[string]int64{
		"f-ffffffffffff": 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the layout")
}

func TestVerifyRecursiveBelowDirect(t *testing.T) {
	err := Verify([]*models.DirectoryRollup{
		{DirectoryID: identity.RootID.String(), DirectoryPath: "", Metric: "m", DirectCount: 5, RecursiveCount: 3},
	}, 3)
	require.Error(t, err)
}

func TestVerifyRootMismatch(t *testing.T) {
	err := Verify([]*models.DirectoryRollup{
		{DirectoryID: identity.RootID.String(), DirectoryPath: "", Metric: "m", DirectCount: 1, RecursiveCount: 5},
	}, 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run total")
}

func TestVerifyMissingRoot(t *testing.T) {
	err := Verify([]*models.DirectoryRollup{
		{DirectoryID: "d-aaaaaaaaaaaa", DirectoryPath: "src", Metric: "m", DirectCount: 1, RecursiveCount: 1},
	}, 1)
	require.Error(t, err)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, int64(6), Total(map[string]int64{"a": 1, "b": 2, "c": 3}))
	assert.Zero(t, Total(nil))
}
