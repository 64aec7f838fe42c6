// Tool surface offered to the responder.
//
// Information Hiding:
// - Tool schemas defined in one place
// - Scope filtering internalized

package orchestrator

import (
	"github.com/richinex/repoassist/llm"
	"github.com/richinex/repoassist/model"
)

// Tool names, shared by definitions, dispatch and consolidation.
const (
	toolSearchRepo      = "search_repo"
	toolOpenFile        = "open_file"
	toolGetIssues       = "get_issues"
	toolGetPullRequests = "get_pull_requests"
	toolGetRepoStats    = "get_repo_stats"
	toolListFiles       = "list_files"
)

// toolDefinitions returns the full tool set with JSON schemas.
func toolDefinitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        toolSearchRepo,
			Description: "Search the repository code for files and functions matching a query.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{"type": "string", "description": "What to search for"},
					"top_k": map[string]interface{}{"type": "integer", "description": "Max results", "default": 5},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        toolOpenFile,
			Description: "Read the contents of a specific file or line range.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       map[string]interface{}{"type": "string", "description": "File path relative to repo root"},
					"start_line": map[string]interface{}{"type": "integer", "description": "Start line (1-indexed)"},
					"end_line":   map[string]interface{}{"type": "integer", "description": "End line (inclusive)"},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        toolGetIssues,
			Description: "Get GitHub issues for the repository.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{"type": "string", "description": "Search text"},
					"state": map[string]interface{}{"type": "string", "description": "open | closed | all", "default": "open"},
					"limit": map[string]interface{}{"type": "integer", "description": "Max results", "default": 10},
				},
			},
		},
		{
			Name:        toolGetPullRequests,
			Description: "Get GitHub pull requests for the repository.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{"type": "string", "description": "Search text"},
					"state": map[string]interface{}{"type": "string", "description": "open | closed | all", "default": "open"},
					"limit": map[string]interface{}{"type": "integer", "description": "Max results", "default": 10},
				},
			},
		},
		{
			Name:        toolGetRepoStats,
			Description: "Get repository statistics.",
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        toolListFiles,
			Description: "List all files in the repository. Use this first to understand the project structure before searching or opening files.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path_prefix": map[string]interface{}{"type": "string", "description": "Only list files under this directory (e.g. 'src/')"},
					"extensions":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Filter by file extensions (e.g. ['.ts', '.py'])"},
				},
			},
		},
	}
}

// restrictedTools are removed from the advertised set in files-only scope.
// list_files stays available in every scope.
var restrictedTools = map[string]bool{
	toolGetIssues:       true,
	toolGetPullRequests: true,
}

// toolsForScope filters the tool set down to what the scope allows.
func toolsForScope(scope model.Scope) []llm.ToolDefinition {
	defs := toolDefinitions()
	if scope != model.ScopeFilesOnly {
		return defs
	}
	allowed := defs[:0]
	for _, def := range defs {
		if !restrictedTools[def.Name] {
			allowed = append(allowed, def)
		}
	}
	return allowed
}
