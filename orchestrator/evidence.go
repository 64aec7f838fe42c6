// Evidence consolidation.
//
// Executed tool calls are flattened into one deduplicated citation list.
// File evidence is keyed by (path, line range); tracker evidence by
// (kind, number). First occurrence wins, so re-running consolidation
// over the same call log is idempotent. Error payloads and results of
// the wrong shape contribute nothing.

package orchestrator

import (
	"fmt"

	"github.com/richinex/repoassist/model"
)

const citationSnippetMax = 200

// Consolidate extracts citations from the executed call log, in call
// order, deduplicated by natural key.
func Consolidate(executed []model.ExecutedToolCall) []model.Citation {
	seen := make(map[string]bool)
	var citations []model.Citation

	add := func(c model.Citation) {
		key := c.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		citations = append(citations, c)
	}

	for _, call := range executed {
		result := call.Result
		if result == nil {
			continue
		}

		switch call.ToolName {
		case toolSearchRepo:
			for _, item := range asMapSlice(result["results"]) {
				add(model.Citation{
					SourceType:    model.SourceFile,
					FilePathOrURL: asString(item["file_path"]),
					StartLine:     asInt(item["start_line"]),
					EndLine:       asInt(item["end_line"]),
					Snippet:       asString(item["snippet"]),
				})
			}

		case toolOpenFile:
			path := asString(result["file_path"])
			if path == "" {
				continue
			}
			add(model.Citation{
				SourceType:    model.SourceFile,
				FilePathOrURL: path,
				StartLine:     asInt(result["start_line"]),
				EndLine:       asInt(result["end_line"]),
				Snippet:       truncateWithEllipsis(asString(result["text"]), citationSnippetMax),
			})

		case toolGetIssues:
			for _, item := range asMapSlice(result["issues"]) {
				add(model.Citation{
					SourceType:    model.SourceIssue,
					FilePathOrURL: asString(item["url"]),
					Snippet:       asString(item["title"]),
					RefID:         refID(item["number"]),
				})
			}

		case toolGetPullRequests:
			for _, item := range asMapSlice(result["pull_requests"]) {
				add(model.Citation{
					SourceType:    model.SourcePR,
					FilePathOrURL: asString(item["url"]),
					Snippet:       asString(item["title"]),
					RefID:         refID(item["number"]),
				})
			}
		}
	}

	return citations
}

func truncateWithEllipsis(text string, max int) string {
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

// Loose-typed result accessors. Results come either straight from the
// dispatcher (Go-typed) or round-tripped through JSON (float64, []any).

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// refID renders a tracker item number, or "" when the number is missing
// or non-numeric, so an absent number is not mistaken for item 0.
func refID(v any) string {
	switch n := v.(type) {
	case int:
		return fmt.Sprint(n)
	case float64:
		return fmt.Sprint(int(n))
	}
	return ""
}

func asMapSlice(v any) []map[string]any {
	switch items := v.(type) {
	case []map[string]any:
		return items
	case []any:
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
