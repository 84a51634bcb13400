package ingest

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/flanksource/scanhub/models"
)

// RowViolation is one quality rule failure for one row of a batch.
type RowViolation struct {
	Index   int    `json:"index"`
	Family  string `json:"family"`
	Path    string `json:"path,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v RowViolation) String() string {
	return fmt.Sprintf("%s[%d] %s: %s (%s)", v.Family, v.Index, v.Path, v.Message, v.Rule)
}

// ValidationError rejects a whole batch. Partial loads are worse than no
// load: downstream aggregations assume completeness per run, so one bad row
// fails them all.
type ValidationError struct {
	Violations []RowViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("data quality validation failed: %s", e.Violations[0])
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("data quality validation failed: %d rows rejected:\n  %s",
		len(e.Violations), strings.Join(msgs, "\n  "))
}

// Rule checks one row and returns "" when it passes, or a message when it
// does not. Rules are stateless and safe to share across runs.
type Rule struct {
	Name  string
	Check func(r models.Record) string
}

// RuleSet is the per-entity-family rule list the quality gate applies.
type RuleSet []Rule

// Validate runs every rule over every row and returns a *ValidationError
// listing all failures, or nil when the batch is clean. All-or-nothing: the
// caller must not persist any row of a batch that failed.
func (rs RuleSet) Validate(rows []models.Record) error {
	var violations []RowViolation
	for i, row := range rows {
		for _, rule := range rs {
			if msg := rule.Check(row); msg != "" {
				violations = append(violations, RowViolation{
					Index:   i,
					Family:  row.Family(),
					Path:    row.SubjectPath(),
					Rule:    rule.Name,
					Message: msg,
				})
			}
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// RequiredString requires a non-empty string field.
func RequiredString(field string) Rule {
	return Rule{
		Name: "required-" + field,
		Check: func(r models.Record) string {
			v, ok := r.AsMap()[field].(string)
			if !ok || v == "" {
				return fmt.Sprintf("%s is required", field)
			}
			return ""
		},
	}
}

// BoundedPair requires field <= boundField, the "covered <= total" family
// of invariants.
func BoundedPair(field, boundField string) Rule {
	return Rule{
		Name: field + "-le-" + boundField,
		Check: func(r models.Record) string {
			m := r.AsMap()
			v, okV := toFloat(m[field])
			bound, okB := toFloat(m[boundField])
			if !okV || !okB {
				return fmt.Sprintf("%s and %s must be numeric", field, boundField)
			}
			if v > bound {
				return fmt.Sprintf("%s (%v) exceeds %s (%v)", field, m[field], boundField, m[boundField])
			}
			return ""
		},
	}
}

// PercentRange requires a percentage field in [0, 100].
func PercentRange(field string) Rule {
	return Rule{
		Name: field + "-percent-range",
		Check: func(r models.Record) string {
			v, ok := toFloat(r.AsMap()[field])
			if !ok {
				return fmt.Sprintf("%s must be numeric", field)
			}
			if v < 0 || v > 100 {
				return fmt.Sprintf("%s (%v) is outside [0, 100]", field, v)
			}
			return ""
		},
	}
}

// NonNegative requires a numeric field >= 0.
func NonNegative(field string) Rule {
	return Rule{
		Name: field + "-non-negative",
		Check: func(r models.Record) string {
			v, ok := toFloat(r.AsMap()[field])
			if !ok {
				return fmt.Sprintf("%s must be numeric", field)
			}
			if v < 0 {
				return fmt.Sprintf("%s (%v) is negative", field, v)
			}
			return ""
		},
	}
}

// InRange requires a numeric field within [min, max].
func InRange(field string, min, max float64) Rule {
	return Rule{
		Name: fmt.Sprintf("%s-range", field),
		Check: func(r models.Record) string {
			v, ok := toFloat(r.AsMap()[field])
			if !ok {
				return fmt.Sprintf("%s must be numeric", field)
			}
			if v < min || v > max {
				return fmt.Sprintf("%s (%v) is outside [%v, %v]", field, v, min, max)
			}
			return ""
		},
	}
}

// RepoRelativePath requires the record's subject path to be repo-relative:
// forward slashes, no leading slash, no parent traversal, no drive letter,
// no sandbox absolute roots. An empty path passes; required-ness is a
// separate rule for families that need one.
func RepoRelativePath() Rule {
	return Rule{
		Name: "repo-relative-path",
		Check: func(r models.Record) string {
			return checkRepoRelative(r.SubjectPath())
		},
	}
}

func checkRepoRelative(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Sprintf("path %q is absolute", p)
	}
	if strings.Contains(p, "\\") {
		return fmt.Sprintf("path %q contains backslashes", p)
	}
	if len(p) >= 2 && p[1] == ':' {
		return fmt.Sprintf("path %q has a drive letter", p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return fmt.Sprintf("path %q escapes the repository", p)
		}
	}
	return ""
}

// CELRule compiles a configured CEL expression into a rule. The row's
// measured fields are bound to the `row` map variable; the expression must
// evaluate to a boolean, and false is a violation.
func CELRule(name, expr string) (Rule, error) {
	env, err := cel.NewEnv(
		cel.Variable("row", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return Rule{}, fmt.Errorf("invalid CEL rule %q: %w", name, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return Rule{}, fmt.Errorf("failed to build CEL program for rule %q: %w", name, err)
	}

	return Rule{
		Name: name,
		Check: func(r models.Record) string {
			out, _, err := prg.Eval(map[string]any{"row": r.AsMap()})
			if err != nil {
				return fmt.Sprintf("CEL evaluation failed: %v", err)
			}
			ok, isBool := out.Value().(bool)
			if !isBool {
				return fmt.Sprintf("CEL rule did not return a boolean: got %v", out.Value())
			}
			if !ok {
				return fmt.Sprintf("expression %q is false", expr)
			}
			return ""
		},
	}, nil
}
