// Package orchestrator runs the turn-bounded control loop between the
// LLM responder and the repository gateway.
//
// One call to Run is one complete query: the responder is prompted,
// its tool calls are dispatched against the gateway, results are fed
// back, and the loop ends when the responder answers without tools or
// the turn budget runs out. The run produces a full audit trail:
// first-turn plan, executed call log, consolidated evidence and the
// composed final response.
//
// Information Hiding:
// - Conversation management hidden from callers
// - Responder protocol details hidden behind llm.Provider
// - Session persistence rules internalized

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/richinex/repoassist/gateway"
	"github.com/richinex/repoassist/llm"
	"github.com/richinex/repoassist/model"
	"github.com/richinex/repoassist/session"
)

// DefaultMaxTurns bounds the loop when the caller passes no budget.
const DefaultMaxTurns = 10

var (
	// ErrInvalidMode is returned before the loop starts when the mode is
	// not one of the known values.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidScope is returned before the loop starts when the scope
	// is not one of the known values.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrResponder wraps transport failures from the LLM provider.
	// These are fatal for the run; there is no retry.
	ErrResponder = errors.New("responder request failed")
)

// finalAnswerNudge is the one-shot tool-free fallback prompt used when
// the loop ends without terminal text.
const finalAnswerNudge = "Please provide your final answer based on the evidence gathered."

// Orchestrator drives the responder loop for one repository.
type Orchestrator struct {
	provider   llm.Provider
	gw         gateway.Gateway
	dispatcher *Dispatcher
	store      session.Store
	turnDelay  time.Duration
	verbose    bool
	out        io.Writer
}

// New creates an orchestrator over the given responder and gateway.
func New(provider llm.Provider, gw gateway.Gateway) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		gw:         gw,
		dispatcher: NewDispatcher(gw),
		out:        os.Stdout,
	}
}

// WithSession enables session persistence. The orchestrator writes the
// session exactly once per run, after composing the final response.
func (o *Orchestrator) WithSession(store session.Store) *Orchestrator {
	o.store = store
	return o
}

// WithTurnDelay adds a pause after every responder call. Useful against
// rate-limited providers; zero disables it.
func (o *Orchestrator) WithTurnDelay(d time.Duration) *Orchestrator {
	o.turnDelay = d
	return o
}

// Verbose enables progress output (turns, tool calls, errors).
func (o *Orchestrator) Verbose(enabled bool) *Orchestrator {
	o.verbose = enabled
	return o
}

// WithOutput redirects verbose output. Defaults to stdout.
func (o *Orchestrator) WithOutput(w io.Writer) *Orchestrator {
	o.out = w
	return o
}

// Run executes one query through the full loop and returns the audit
// trail. Validation failures, responder transport failures and
// cancellation are fatal; tool failures are not.
func (o *Orchestrator) Run(ctx context.Context, query string, mode model.Mode, scope model.Scope, maxTurns int) (model.OrchestratorResult, error) {
	if _, err := model.ParseMode(mode.String()); err != nil {
		return model.OrchestratorResult{}, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if _, err := model.ParseScope(scope.String()); err != nil {
		return model.OrchestratorResult{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	systemPrompt, err := o.buildSystemPrompt(ctx, mode, scope)
	if err != nil {
		return model.OrchestratorResult{}, err
	}

	conversation := []llm.ChatMessage{
		llm.SystemMessage(systemPrompt),
		llm.UserMessage("Request: " + query),
	}
	tools := toolsForScope(scope)

	var (
		plan      []model.ToolCallSpec
		executed  []model.ExecutedToolCall
		finalText string
	)

	for turn := 1; turn <= maxTurns; turn++ {
		if err := ctx.Err(); err != nil {
			return model.OrchestratorResult{}, fmt.Errorf("run cancelled: %w", err)
		}
		o.logf("\n[orchestrator] turn %d\n", turn)

		resp, err := o.provider.ChatWithTools(ctx, conversation, tools)
		if err != nil {
			return model.OrchestratorResult{}, fmt.Errorf("%w: %w", ErrResponder, err)
		}
		o.pause(ctx)

		if resp.Empty() {
			break
		}

		if len(resp.ToolCalls) == 0 {
			finalText = resp.Content
			o.logf("[orchestrator] final answer received\n")
			break
		}

		// The first turn's requested calls are the plan preview.
		if turn == 1 {
			plan = planFromCalls(resp.ToolCalls)
		}
		if resp.Content != "" {
			finalText = resp.Content
		}

		conversation = append(conversation, llm.ChatMessage{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			args := decodeArgs(call.Arguments)
			o.logf("  [tool] %s(%v)\n", call.Name, args)

			record := o.dispatcher.Dispatch(ctx, call.Name, args, scope)
			if record.Error != "" {
				o.logf("    [error] %s\n", record.Error)
			}
			executed = append(executed, record)

			payload, err := json.Marshal(record.Result)
			if err != nil {
				payload = []byte(`{"error": "unserializable tool result"}`)
			}
			conversation = append(conversation, llm.ToolMessage(call.ID, string(payload)))
		}
	}

	if strings.TrimSpace(finalText) == "" {
		if err := ctx.Err(); err != nil {
			return model.OrchestratorResult{}, fmt.Errorf("run cancelled: %w", err)
		}
		conversation = append(conversation, llm.UserMessage(finalAnswerNudge))

		fallback, err := o.provider.Chat(ctx, conversation)
		if err != nil {
			return model.OrchestratorResult{}, fmt.Errorf("%w: %w", ErrResponder, err)
		}
		o.pause(ctx)
		finalText += fallback.Content
	}

	evidence := Consolidate(executed)
	final := Compose(finalText, evidence, mode)

	if o.store != nil {
		o.recordSession(ctx, query, final, evidence)
	}

	return model.OrchestratorResult{
		ToolCallPlan:         plan,
		ExecutedToolCalls:    executed,
		ConsolidatedEvidence: evidence,
		FinalResponse:        final,
	}, nil
}

// recordSession is the single per-run session write: the query with a
// bounded answer summary, plus file-type evidence refs. Best-effort;
// a persistence failure does not invalidate the computed result.
func (o *Orchestrator) recordSession(ctx context.Context, query string, final model.FinalResponse, evidence []model.Citation) {
	summary := final.AnswerText
	if len(summary) > session.MaxSummaryChars {
		summary = summary[:session.MaxSummaryChars]
	}
	if err := o.store.AddQuery(ctx, query, summary); err != nil {
		o.logf("[orchestrator] session write failed: %v\n", err)
		return
	}

	var refs []session.EvidenceRef
	for _, c := range evidence {
		if c.SourceType != model.SourceFile {
			continue
		}
		refs = append(refs, session.EvidenceRef{
			FilePath:  c.FilePathOrURL,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
		})
	}
	if err := o.store.AddEvidence(ctx, refs); err != nil {
		o.logf("[orchestrator] session write failed: %v\n", err)
	}
}

// planFromCalls converts first-turn tool calls into plan specs.
func planFromCalls(calls []llm.ToolCall) []model.ToolCallSpec {
	plan := make([]model.ToolCallSpec, 0, len(calls))
	for _, call := range calls {
		plan = append(plan, model.ToolCallSpec{
			ToolName:  call.Name,
			Arguments: decodeArgs(call.Arguments),
		})
	}
	return plan
}

// decodeArgs decodes raw JSON arguments into a map. Malformed arguments
// become an empty map; the dispatcher's defaults take over.
func decodeArgs(raw json.RawMessage) map[string]any {
	args := make(map[string]any)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	return args
}

// pause sleeps for the configured turn delay, waking early on
// cancellation.
func (o *Orchestrator) pause(ctx context.Context) {
	if o.turnDelay <= 0 {
		return
	}
	timer := time.NewTimer(o.turnDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.verbose {
		fmt.Fprintf(o.out, format, args...)
	}
}
