// Package model provides domain types shared across packages.
package model

import "fmt"

// Mode selects how the responder is instructed and how its final
// output is post-processed.
type Mode string

const (
	ModeExplain Mode = "explain"
	ModeLocate  Mode = "locate"
	ModeSuggest Mode = "suggest"
	ModePatch   Mode = "patch"
)

// ParseMode parses a string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeExplain, ModeLocate, ModeSuggest, ModePatch:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode: %q (expected explain, locate, suggest or patch)", s)
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Scope is a capability filter over the tool set offered to the responder.
type Scope string

const (
	// ScopeFilesOnly removes the issue/PR tools from the responder's tool
	// set and makes their dispatch fail with a scope-violation error.
	ScopeFilesOnly Scope = "files-only"
	// ScopeIncludePR exposes the full tool set.
	ScopeIncludePR Scope = "include-pr"
)

// ParseScope parses a string into a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeFilesOnly, ScopeIncludePR:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope: %q (expected files-only or include-pr)", s)
	}
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}

// SourceType classifies where a citation came from.
type SourceType string

const (
	SourceFile  SourceType = "file"
	SourceIssue SourceType = "issue"
	SourcePR    SourceType = "pr"
)

// ToolCallSpec records a tool call the responder requested on the first
// turn. It is a plan preview for audit display, not the full call log.
type ToolCallSpec struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Rationale string         `json:"rationale,omitempty"`
}

// ExecutedToolCall records one tool invocation actually dispatched,
// in dispatch order across all turns. Error is set iff the dispatcher
// caught a failure; Result may still hold an error payload.
type ExecutedToolCall struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Citation is one piece of consolidated evidence.
type Citation struct {
	SourceType SourceType `json:"source_type"`
	// FilePathOrURL is a repository-relative path for file citations
	// and a web URL for issue/PR citations.
	FilePathOrURL string `json:"file_path"`
	StartLine     int    `json:"start_line,omitempty"`
	EndLine       int    `json:"end_line,omitempty"`
	Snippet       string `json:"snippet,omitempty"`
	// RefID is the issue/PR number for tracker citations.
	RefID string `json:"ref_id,omitempty"`
}

// Key returns the natural dedup key for the citation: (path, lines) for
// files, (kind, number) for issues and PRs.
func (c Citation) Key() string {
	if c.SourceType == SourceFile {
		return fmt.Sprintf("file:%s:%d:%d", c.FilePathOrURL, c.StartLine, c.EndLine)
	}
	return fmt.Sprintf("%s:%s", c.SourceType, c.RefID)
}

// FinalResponse is the structured form of the responder's terminal text.
type FinalResponse struct {
	AnswerText  string     `json:"answer_text"`
	Citations   []Citation `json:"citations"`
	PatchDiff   string     `json:"patch_diff,omitempty"`
	NextActions []string   `json:"next_actions,omitempty"`
}

// OrchestratorResult is the full, inspectable audit trail of one run.
type OrchestratorResult struct {
	ToolCallPlan         []ToolCallSpec     `json:"tool_call_plan"`
	ExecutedToolCalls    []ExecutedToolCall `json:"executed_tool_calls"`
	ConsolidatedEvidence []Citation         `json:"consolidated_evidence"`
	FinalResponse        FinalResponse      `json:"final_response"`
}
