// Package session provides persistence for query history and evidence
// references across orchestrator runs.
//
// Information Hiding:
// - Storage backend (memory vs SQLite) hidden behind the Store interface
// - Capping and dedup of history internalized
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// History caps. Most-recent entries win; older ones are dropped.
const (
	MaxRecentQueries = 10
	MaxEvidenceRefs  = 50

	// MaxSummaryChars bounds the stored answer summary.
	MaxSummaryChars = 300
)

// QueryRecord is one past query with a bounded answer summary.
type QueryRecord struct {
	Query     string `json:"query"`
	Summary   string `json:"summary"`
	Timestamp string `json:"timestamp"`
}

// EvidenceRef points at a file span that earlier runs cited.
type EvidenceRef struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
}

// Settings are the sticky per-session user preferences.
type Settings struct {
	Mode    string `json:"mode"`
	Scope   string `json:"scope"`
	Verbose bool   `json:"verbose"`
}

// Context is the read view handed to the orchestrator when building
// the responder's instruction block.
type Context struct {
	SessionID     string        `json:"session_id"`
	RecentQueries []QueryRecord `json:"recent_queries"`
	EvidenceRefs  []EvidenceRef `json:"evidence_refs"`
	Settings      Settings      `json:"settings"`
}

// Store is the session collaborator interface. Implementations own
// serialization of concurrent writes; the orchestrator writes exactly
// once per run, after composing the final response.
type Store interface {
	// AddQuery appends a query/summary pair, keeping the most recent
	// MaxRecentQueries entries. Summaries are truncated to MaxSummaryChars.
	AddQuery(ctx context.Context, query, summary string) error

	// AddEvidence appends file evidence refs, deduplicating by
	// (path, startLine, endLine) and keeping the most recent
	// MaxEvidenceRefs entries.
	AddEvidence(ctx context.Context, refs []EvidenceRef) error

	// Context returns the current session view, most-recent-last.
	Context(ctx context.Context) (Context, error)

	// UpdateSettings persists sticky user preferences.
	UpdateSettings(ctx context.Context, settings Settings) error
}

// NewSessionID returns a short random session identifier.
func NewSessionID() string {
	return uuid.New().String()[:12]
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func truncateSummary(summary string) string {
	if len(summary) > MaxSummaryChars {
		return summary[:MaxSummaryChars]
	}
	return summary
}

func refKey(r EvidenceRef) [3]any {
	return [3]any{r.FilePath, r.StartLine, r.EndLine}
}
