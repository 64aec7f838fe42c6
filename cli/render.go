// Output formatting for CLI commands.
//
// Information Hiding:
// - Text layout and JSON envelope hidden from command handlers

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/richinex/repoassist/model"
)

// PrintText renders the run result for humans: answer, grouped
// citations, patch, next actions, then an optional call log.
func PrintText(w io.Writer, result model.OrchestratorResult, sessionID string, verbose bool) {
	resp := result.FinalResponse

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(w, "Answer:")
	fmt.Fprintln(w, "  "+strings.ReplaceAll(resp.AnswerText, "\n", "\n  "))

	if len(resp.Citations) > 0 {
		fmt.Fprintln(w, "\nCitations:")
		fileIdx := 0
		for _, c := range resp.Citations {
			if c.SourceType != model.SourceFile {
				continue
			}
			fileIdx++
			loc := c.FilePathOrURL
			switch {
			case c.StartLine > 0 && c.EndLine > 0:
				loc += fmt.Sprintf(":%d-%d", c.StartLine, c.EndLine)
			case c.StartLine > 0:
				loc += fmt.Sprintf(":%d", c.StartLine)
			}
			fmt.Fprintf(w, "  [%d] %s\n", fileIdx, loc)
		}
		for _, c := range resp.Citations {
			if c.SourceType == model.SourceIssue {
				fmt.Fprintf(w, "  [Issue #%s] %s  %s\n", c.RefID, c.Snippet, c.FilePathOrURL)
			}
		}
		for _, c := range resp.Citations {
			if c.SourceType == model.SourcePR {
				fmt.Fprintf(w, "  [PR #%s] %s  %s\n", c.RefID, c.Snippet, c.FilePathOrURL)
			}
		}
	}

	if resp.PatchDiff != "" {
		fmt.Fprintln(w, "\nPatch:")
		fmt.Fprintln(w, "```diff")
		fmt.Fprintln(w, resp.PatchDiff)
		fmt.Fprintln(w, "```")
	}

	if len(resp.NextActions) > 0 {
		fmt.Fprintln(w, "\nNext Actions:")
		for _, action := range resp.NextActions {
			fmt.Fprintf(w, "  - [ ] %s\n", action)
		}
	}

	if verbose {
		fmt.Fprintf(w, "\nTool calls executed: %d\n", len(result.ExecutedToolCalls))
		for _, call := range result.ExecutedToolCalls {
			status := "OK"
			if call.Error != "" {
				status = "ERROR: " + call.Error
			}
			fmt.Fprintf(w, "  %s(%v) -> %s\n", call.ToolName, call.Arguments, status)
		}
	}

	fmt.Fprintf(w, "\nSession: %s\n", sessionID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

// jsonEnvelope is the machine-readable output shape.
type jsonEnvelope struct {
	SessionID            string                   `json:"session_id"`
	ToolCallPlan         []model.ToolCallSpec     `json:"tool_call_plan"`
	ExecutedToolCalls    []jsonExecutedCall       `json:"executed_tool_calls"`
	ConsolidatedEvidence []model.Citation         `json:"consolidated_evidence"`
	FinalResponse        model.FinalResponse      `json:"final_response"`
}

// jsonExecutedCall omits raw results; the evidence list already carries
// what matters and full payloads can be large.
type jsonExecutedCall struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"args"`
	Error     string         `json:"error,omitempty"`
}

// PrintJSON renders the run result as indented JSON.
func PrintJSON(w io.Writer, result model.OrchestratorResult, sessionID string) error {
	calls := make([]jsonExecutedCall, 0, len(result.ExecutedToolCalls))
	for _, c := range result.ExecutedToolCalls {
		calls = append(calls, jsonExecutedCall{
			ToolName:  c.ToolName,
			Arguments: c.Arguments,
			Error:     c.Error,
		})
	}

	envelope := jsonEnvelope{
		SessionID:            sessionID,
		ToolCallPlan:         result.ToolCallPlan,
		ExecutedToolCalls:    calls,
		ConsolidatedEvidence: result.ConsolidatedEvidence,
		FinalResponse:        result.FinalResponse,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope)
}
