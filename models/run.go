package models

import (
	"fmt"
	"time"

	"github.com/flanksource/clicky/api"
)

// ToolRun scopes all findings of one tool execution against one repository
// collection run. RunKey is the surrogate key every finding row carries; it
// is internal to the warehouse and never exposed to callers outside it.
// Uniqueness of (tool_name, run_id, repository_id) is what makes ingestion
// replay-safe.
type ToolRun struct {
	RunKey       uint      `json:"-" gorm:"column:run_key;primaryKey;autoIncrement"`
	ToolName     string    `json:"tool_name" gorm:"column:tool_name;not null;uniqueIndex:idx_tool_run"`
	RunID        string    `json:"run_id" gorm:"column:run_id;not null;uniqueIndex:idx_tool_run"`
	RepositoryID string    `json:"repository_id" gorm:"column:repository_id;not null;uniqueIndex:idx_tool_run"`
	Branch       string    `json:"branch,omitempty" gorm:"column:branch"`
	Commit       string    `json:"commit,omitempty" gorm:"column:commit_sha"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
}

func (ToolRun) TableName() string {
	return "tool_runs"
}

func (r ToolRun) String() string {
	return fmt.Sprintf("%s/%s@%s", r.ToolName, r.RunID, r.RepositoryID)
}

// Pretty returns a styled one-line representation of the run scope.
func (r ToolRun) Pretty() api.Text {
	t := api.Text{}.Append(r.ToolName, "text-blue-600").
		Append(" ").
		Append(r.RunID, "text-gray-500")
	if r.Branch != "" {
		t = t.Append(" "+r.Branch, "text-green-600")
	}
	if len(r.Commit) >= 7 {
		t = t.Append(" "+r.Commit[:7], "text-gray-400")
	}
	return t
}
