// Package gateway provides the repository capability surface consumed by
// the orchestrator: code search, file access, file listing, repository
// statistics, and issue/PR lookups.
//
// Information Hiding:
// - Index layout and chunking hidden behind the Gateway interface
// - Search ranking internalized
// - Tracker record storage hidden from consumers
package gateway

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested file path is not in the index.
var ErrNotFound = errors.New("not found")

// SearchMatch is one search hit: a chunk of a file with its line range.
type SearchMatch struct {
	ChunkID   string `json:"chunk_id"`
	Path      string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Snippet   string `json:"snippet"`
	FullText  string `json:"full_text"`
}

// FileContent is the result of reading a file or file range.
type FileContent struct {
	Path       string `json:"file_path"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Text       string `json:"text"`
	TotalLines int    `json:"total_lines"`
	Extension  string `json:"extension"`
}

// Stats summarizes the indexed repository.
type Stats struct {
	RepoPath    string `json:"repo_path"`
	TotalFiles  int    `json:"total_files"`
	TotalChunks int    `json:"total_chunks"`
	TotalIssues int    `json:"total_issues"`
	TotalPRs    int    `json:"total_prs"`
}

// Issue is a tracker issue record.
type Issue struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	State     string `json:"state"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// PullRequest is a tracker pull request record.
type PullRequest struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	State     string `json:"state"`
	URL       string `json:"url"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Gateway is the narrow interface the orchestrator dispatches tools against.
type Gateway interface {
	// Search returns up to topK chunks whose text matches the query.
	Search(ctx context.Context, query string, topK int) ([]SearchMatch, error)

	// ReadFile reads a file or 1-indexed inclusive line range.
	// Passing 0 for both bounds reads the whole file.
	// Returns ErrNotFound if the path is not indexed.
	ReadFile(ctx context.Context, path string, startLine, endLine int) (FileContent, error)

	// ListFiles lists indexed file paths, optionally filtered by path
	// prefix and extensions.
	ListFiles(ctx context.Context, pathPrefix string, extensions []string) ([]string, error)

	// Stats returns counts describing the indexed repository.
	Stats(ctx context.Context) (Stats, error)

	// Issues returns tracker issues filtered by query text, state and limit.
	Issues(ctx context.Context, query, state string, limit int) ([]Issue, error)

	// PullRequests returns tracker PRs filtered by query text, state and limit.
	PullRequests(ctx context.Context, query, state string, limit int) ([]PullRequest, error)
}
