package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flanksource/scanhub/models"
)

func coverageRow(path string, covered, total int, percent float64) models.Record {
	return &models.CoverageRecord{
		FilePath:          path,
		CoveredStatements: covered,
		TotalStatements:   total,
		Percent:           percent,
	}
}

func TestValidateCleanBatch(t *testing.T) {
	rules := RuleSet{
		RequiredString("file"),
		BoundedPair("covered_statements", "total_statements"),
		PercentRange("percent"),
		RepoRelativePath(),
	}
	err := rules.Validate([]models.Record{
		coverageRow("src/app.py", 50, 100, 50),
		coverageRow("src/utils/helpers.py", 100, 100, 100),
		coverageRow("empty.py", 0, 0, 0),
	})
	assert.NoError(t, err)
}

func TestValidateRejectsWholeBatch(t *testing.T) {
	rules := RuleSet{BoundedPair("covered_statements", "total_statements")}
	err := rules.Validate([]models.Record{
		coverageRow("src/good.py", 10, 100, 10),
		coverageRow("src/bad.py", 150, 100, 150),
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, 1, verr.Violations[0].Index)
	assert.Equal(t, "src/bad.py", verr.Violations[0].Path)
	assert.Contains(t, err.Error(), "data quality validation failed")
}

func TestValidateCollectsAllViolations(t *testing.T) {
	rules := RuleSet{
		BoundedPair("covered_statements", "total_statements"),
		PercentRange("percent"),
	}
	err := rules.Validate([]models.Record{
		coverageRow("a.py", 150, 100, 150),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	// One row, two failed rules.
	assert.Len(t, verr.Violations, 2)
}

func TestRequiredString(t *testing.T) {
	rule := RequiredString("rule")
	assert.Empty(t, rule.Check(&models.LintViolation{RuleID: "errcheck"}))
	assert.NotEmpty(t, rule.Check(&models.LintViolation{}))
}

func TestPercentRange(t *testing.T) {
	rule := PercentRange("percent")
	assert.Empty(t, rule.Check(coverageRow("a.py", 0, 1, 0)))
	assert.Empty(t, rule.Check(coverageRow("a.py", 1, 1, 100)))
	assert.NotEmpty(t, rule.Check(coverageRow("a.py", 1, 1, 100.5)))
	assert.NotEmpty(t, rule.Check(coverageRow("a.py", 0, 1, -1)))
}

func TestInRange(t *testing.T) {
	rule := InRange("score", 0, 10)
	assert.Empty(t, rule.Check(&models.Vulnerability{Score: 7.5}))
	assert.NotEmpty(t, rule.Check(&models.Vulnerability{Score: 11}))
}

func TestNonNegative(t *testing.T) {
	rule := NonNegative("line_start")
	assert.Empty(t, rule.Check(&models.LintViolation{LineStart: 3}))
	assert.NotEmpty(t, rule.Check(&models.LintViolation{LineStart: -1}))
}

func TestRepoRelativePath(t *testing.T) {
	rule := RepoRelativePath()

	pass := []string{"", "src/app.py", "go.mod", "deep/nested/file.go"}
	for _, p := range pass {
		assert.Empty(t, rule.Check(&models.LintViolation{FilePath: p}), "path %q", p)
	}

	fail := []string{
		"/etc/passwd",
		"/tmp/sandbox/repo/src/app.py",
		"../outside.go",
		"src/../../outside.go",
		`C:/repo/app.py`,
		`src\app.py`,
	}
	for _, p := range fail {
		assert.NotEmpty(t, rule.Check(&models.LintViolation{FilePath: p}), "path %q", p)
	}
}

func TestCELRule(t *testing.T) {
	rule, err := CELRule("severity-known", `row.severity in ["error", "warning", "info"]`)
	require.NoError(t, err)

	assert.Empty(t, rule.Check(&models.LintViolation{Severity: "warning"}))
	assert.NotEmpty(t, rule.Check(&models.LintViolation{Severity: "whatever"}))
}

func TestCELRuleNumeric(t *testing.T) {
	rule, err := CELRule("small-range", `row.line_end - row.line_start < 1000`)
	require.NoError(t, err)

	assert.Empty(t, rule.Check(&models.LintViolation{LineStart: 1, LineEnd: 10}))
	assert.NotEmpty(t, rule.Check(&models.LintViolation{LineStart: 1, LineEnd: 5000}))
}

func TestCELRuleInvalidExpression(t *testing.T) {
	_, err := CELRule("broken", `row.severity in [`)
	assert.Error(t, err)
}

func TestCELRuleNonBoolean(t *testing.T) {
	rule, err := CELRule("not-a-bool", `row.severity`)
	require.NoError(t, err)
	assert.NotEmpty(t, rule.Check(&models.LintViolation{Severity: "error"}))
}
