// Tool invocation dispatch.
//
// Every responder-requested call goes through Dispatch, which enforces
// scope, executes against the gateway, and captures failures as error
// payloads instead of aborting the run. A failed tool call is evidence
// for the responder, not a reason to stop.
//
// Information Hiding:
// - Gateway result shaping hidden from the loop
// - Argument coercion from loosely-typed JSON internalized

package orchestrator

import (
	"context"
	"fmt"

	"github.com/richinex/repoassist/gateway"
	"github.com/richinex/repoassist/model"
)

// Dispatcher executes responder tool calls against the repository gateway.
type Dispatcher struct {
	gw gateway.Gateway
}

// NewDispatcher creates a dispatcher over the given gateway.
func NewDispatcher(gw gateway.Gateway) *Dispatcher {
	return &Dispatcher{gw: gw}
}

// Dispatch executes one tool call and returns its record. Failures are
// folded into the record: Result carries an error payload the responder
// can read, and Error mirrors the message for the audit trail.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any, scope model.Scope) model.ExecutedToolCall {
	call := model.ExecutedToolCall{ToolName: name, Arguments: args}

	result, err := d.execute(ctx, name, args, scope)
	if err != nil {
		call.Error = err.Error()
		call.Result = map[string]any{"error": err.Error()}
		return call
	}

	call.Result = result
	if msg, ok := result["error"].(string); ok {
		call.Error = msg
	}
	return call
}

func (d *Dispatcher) execute(ctx context.Context, name string, args map[string]any, scope model.Scope) (map[string]any, error) {
	switch name {
	case toolSearchRepo:
		matches, err := d.gw.Search(ctx, argString(args, "query"), argInt(args, "top_k", 5))
		if err != nil {
			return nil, err
		}
		results := make([]map[string]any, 0, len(matches))
		for _, m := range matches {
			results = append(results, map[string]any{
				"source":     "file",
				"chunk_id":   m.ChunkID,
				"file_path":  m.Path,
				"start_line": m.StartLine,
				"end_line":   m.EndLine,
				"snippet":    m.Snippet,
				"full_text":  m.FullText,
			})
		}
		return map[string]any{"results": results, "count": len(results)}, nil

	case toolOpenFile:
		content, err := d.gw.ReadFile(ctx,
			argString(args, "path"),
			argInt(args, "start_line", 0),
			argInt(args, "end_line", 0))
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"file_path":   content.Path,
			"start_line":  content.StartLine,
			"end_line":    content.EndLine,
			"text":        content.Text,
			"total_lines": content.TotalLines,
			"extension":   content.Extension,
		}, nil

	case toolGetIssues:
		if scope == model.ScopeFilesOnly {
			return map[string]any{"error": "get_issues not available in files-only scope"}, nil
		}
		issues, err := d.gw.Issues(ctx,
			argString(args, "query"),
			argStringDefault(args, "state", "open"),
			argInt(args, "limit", 10))
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(issues))
		for _, issue := range issues {
			items = append(items, map[string]any{
				"number":     issue.Number,
				"title":      issue.Title,
				"body":       issue.Body,
				"state":      issue.State,
				"url":        issue.URL,
				"updated_at": issue.UpdatedAt,
			})
		}
		return map[string]any{"issues": items, "count": len(items)}, nil

	case toolGetPullRequests:
		if scope == model.ScopeFilesOnly {
			return map[string]any{"error": "get_pull_requests not available in files-only scope"}, nil
		}
		prs, err := d.gw.PullRequests(ctx,
			argString(args, "query"),
			argStringDefault(args, "state", "open"),
			argInt(args, "limit", 10))
		if err != nil {
			return nil, err
		}
		items := make([]map[string]any, 0, len(prs))
		for _, pr := range prs {
			items = append(items, map[string]any{
				"number":     pr.Number,
				"title":      pr.Title,
				"body":       pr.Body,
				"state":      pr.State,
				"url":        pr.URL,
				"updated_at": pr.UpdatedAt,
			})
		}
		return map[string]any{"pull_requests": items, "count": len(items)}, nil

	case toolGetRepoStats:
		stats, err := d.gw.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"repo_path":    stats.RepoPath,
			"total_files":  stats.TotalFiles,
			"total_chunks": stats.TotalChunks,
			"total_issues": stats.TotalIssues,
			"total_prs":    stats.TotalPRs,
		}, nil

	case toolListFiles:
		files, err := d.gw.ListFiles(ctx,
			argString(args, "path_prefix"),
			argStrings(args, "extensions"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"files": files, "count": len(files)}, nil

	default:
		return map[string]any{"error": fmt.Sprintf("Unknown tool: %s", name)}, nil
	}
}

// Argument coercion. Responder arguments arrive as decoded JSON, so
// numbers are float64 and arrays are []any.

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argStringDefault(args map[string]any, key, fallback string) string {
	if s, ok := args[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func argInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func argStrings(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
