// Responder instruction assembly.
//
// The system prompt is rebuilt for every run from repository statistics,
// the last few session queries, the mode instruction and the scope note.

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/richinex/repoassist/model"
)

// recentHistoryLimit bounds how many prior queries are surfaced to the
// responder. The session store keeps more; the prompt stays small.
const recentHistoryLimit = 3

var modeInstructions = map[model.Mode]string{
	model.ModeExplain: "Provide a thorough explanation with code citations. " +
		"Reference specific file paths and line numbers.",
	model.ModeLocate: "Identify exactly which files and line ranges implement the requested functionality. " +
		"Be concise: list locations first, brief explanation second.",
	model.ModeSuggest: "Suggest concrete next development steps. " +
		"For each suggestion include an impact label (high/medium/low) and an effort label (high/medium/low). " +
		"End your response with a 'Next Actions' list.",
	model.ModePatch: "Propose a code change that addresses the request. " +
		"Output the change as a unified diff (patch format) after your explanation.",
}

func scopeNote(scope model.Scope) string {
	if scope == model.ScopeIncludePR {
		return "You may use all available tools including issue and PR lookups."
	}
	return "Only use file-based tools (search_repo, open_file, get_repo_stats). " +
		"Do NOT call get_issues or get_pull_requests."
}

// buildSystemPrompt assembles the per-run responder instructions.
func (o *Orchestrator) buildSystemPrompt(ctx context.Context, mode model.Mode, scope model.Scope) (string, error) {
	stats, err := o.gw.Stats(ctx)
	if err != nil {
		return "", fmt.Errorf("repository stats: %w", err)
	}

	history := ""
	if o.store != nil {
		sessCtx, err := o.store.Context(ctx)
		if err != nil {
			return "", fmt.Errorf("session context: %w", err)
		}
		recent := sessCtx.RecentQueries
		if len(recent) > recentHistoryLimit {
			recent = recent[len(recent)-recentHistoryLimit:]
		}
		if len(recent) > 0 {
			var sb strings.Builder
			for _, q := range recent {
				fmt.Fprintf(&sb, "  - %s: %s\n", q.Query, q.Summary)
			}
			history = fmt.Sprintf("\nRecent conversation history:\n%s", sb.String())
		}
	}

	return fmt.Sprintf(`You are an expert repository assistant. You have tools to search code, read files, and query GitHub issues/PRs.

Repository Context:
  Path: %s
  Files: %d
  Chunks: %d
  Issues: %d
  Pull Requests: %d
%s
Mode: %s
%s

Scope: %s

General guidelines:
- Always cite specific files and line numbers when referencing code.
- Use multiple tool calls in a turn when gathering broad evidence.
- If you cannot find something, say so clearly rather than guessing.
- Structure your final answer clearly with headings if appropriate.`,
		stats.RepoPath, stats.TotalFiles, stats.TotalChunks, stats.TotalIssues, stats.TotalPRs,
		history,
		strings.ToUpper(mode.String()), modeInstructions[mode],
		scopeNote(scope)), nil
}
