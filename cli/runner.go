// Command execution for CLI commands.
//
// Information Hiding:
// - Component wiring (index, session store, provider) hidden
// - Command dispatch logic hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/richinex/repoassist/config"
	"github.com/richinex/repoassist/gateway"
	"github.com/richinex/repoassist/llm"
	"github.com/richinex/repoassist/model"
	"github.com/richinex/repoassist/orchestrator"
	"github.com/richinex/repoassist/session"
)

// Options holds CLI execution options.
type Options struct {
	Provider      string
	Mode          string
	Scope         string
	MaxTurns      int
	Output        string // text | json
	SessionID     string // resume an existing session
	TrackerExport string // path to an issue/PR snapshot file
	Verbose       bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Mode:   model.ModeExplain.String(),
		Scope:  model.ScopeIncludePR.String(),
		Output: "text",
	}
}

// Ask runs a single query against a repository and prints the result.
func Ask(ctx context.Context, repoPath, query string, opts Options) error {
	mode, err := model.ParseMode(opts.Mode)
	if err != nil {
		return err
	}
	scope, err := model.ParseScope(opts.Scope)
	if err != nil {
		return err
	}

	provider, settings, err := createProvider(opts.Provider)
	if err != nil {
		return err
	}

	idx, err := buildIndex(repoPath, opts.TrackerExport)
	if err != nil {
		return err
	}

	store, err := openSession(settings.Orchestrator.SessionDBPath, opts.SessionID, opts.Verbose)
	if err != nil {
		return err
	}
	defer store.Close()

	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = settings.Orchestrator.MaxTurns
	}

	orch := orchestrator.New(provider, idx).
		WithSession(store).
		WithTurnDelay(settings.Orchestrator.TurnDelay).
		Verbose(opts.Verbose)

	result, err := orch.Run(ctx, query, mode, scope, maxTurns)
	if err != nil {
		return err
	}

	if opts.Output == "json" {
		return PrintJSON(os.Stdout, result, store.SessionID())
	}
	PrintText(os.Stdout, result, store.SessionID(), opts.Verbose)
	return nil
}

// Chat starts an interactive session against a repository. Mode and
// scope can be switched mid-session with 'mode <name>' and
// 'scope <name>'; switches stick to the session.
func Chat(ctx context.Context, repoPath string, opts Options) error {
	mode, err := model.ParseMode(opts.Mode)
	if err != nil {
		return err
	}
	scope, err := model.ParseScope(opts.Scope)
	if err != nil {
		return err
	}

	provider, settings, err := createProvider(opts.Provider)
	if err != nil {
		return err
	}

	idx, err := buildIndex(repoPath, opts.TrackerExport)
	if err != nil {
		return err
	}

	store, err := openSession(settings.Orchestrator.SessionDBPath, opts.SessionID, opts.Verbose)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.UpdateSettings(ctx, session.Settings{
		Mode:    mode.String(),
		Scope:   scope.String(),
		Verbose: opts.Verbose,
	}); err != nil {
		return fmt.Errorf("failed to store settings: %w", err)
	}

	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = settings.Orchestrator.MaxTurns
	}

	orch := orchestrator.New(provider, idx).
		WithSession(store).
		WithTurnDelay(settings.Orchestrator.TurnDelay).
		Verbose(opts.Verbose)

	fmt.Println("Repo Assist - Interactive Chat")
	fmt.Printf("Repository : %s\n", repoPath)
	fmt.Printf("Session    : %s\n", store.SessionID())
	fmt.Printf("Mode       : %s  |  Scope: %s\n", mode, scope)
	fmt.Println("Type 'quit' or 'exit' to end. Type 'mode <name>' or 'scope <name>' to switch.")
	fmt.Println(strings.Repeat("-", 60))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		lower := strings.ToLower(input)
		if lower == "quit" || lower == "exit" || lower == "q" {
			fmt.Printf("Session saved: %s\n", store.SessionID())
			break
		}

		if rest, ok := strings.CutPrefix(lower, "mode "); ok {
			newMode, err := model.ParseMode(strings.TrimSpace(rest))
			if err != nil {
				fmt.Println("Unknown mode. Choose: explain | locate | suggest | patch")
				continue
			}
			mode = newMode
			if err := persistSettings(ctx, store, mode, scope, opts.Verbose); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save settings: %v\n", err)
			}
			fmt.Printf("Mode switched to: %s\n", mode)
			continue
		}

		if rest, ok := strings.CutPrefix(lower, "scope "); ok {
			newScope, err := model.ParseScope(strings.TrimSpace(rest))
			if err != nil {
				fmt.Println("Unknown scope. Choose: files-only | include-pr")
				continue
			}
			scope = newScope
			if err := persistSettings(ctx, store, mode, scope, opts.Verbose); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save settings: %v\n", err)
			}
			fmt.Printf("Scope switched to: %s\n", scope)
			continue
		}

		result, err := orch.Run(ctx, input, mode, scope, maxTurns)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			continue
		}
		PrintText(os.Stdout, result, store.SessionID(), opts.Verbose)
	}

	return scanner.Err()
}

// ListSessions prints all session IDs in the session database.
func ListSessions(ctx context.Context, opts Options) error {
	settings, err := config.New(defaultProvider(opts.Provider))
	if err != nil {
		return err
	}

	store, err := session.OpenSqlite(settings.Orchestrator.SessionDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

// Helper functions

func buildIndex(repoPath, trackerExport string) (*gateway.Index, error) {
	idx, err := gateway.NewIndex(repoPath)
	if err != nil {
		return nil, err
	}
	if trackerExport != "" {
		if err := idx.LoadTrackerExport(trackerExport); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// openSession opens the session database, resuming the given session ID
// when possible. An unknown ID falls back to a fresh session with a
// warning, matching how a typo should not lose the user's query.
func openSession(dbPath, sessionID string, verbose bool) (*session.SqliteStore, error) {
	if sessionID == "" {
		store, err := session.OpenSqlite(dbPath)
		if err != nil {
			return nil, err
		}
		if verbose {
			fmt.Printf("[session] created %s\n", store.SessionID())
		}
		return store, nil
	}

	store, err := session.ResumeSqlite(dbPath, sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		fmt.Printf("Warning: session '%s' not found - starting a new session.\n", sessionID)
		return session.OpenSqlite(dbPath)
	}
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Printf("[session] resumed %s\n", sessionID)
	}
	return store, nil
}

func persistSettings(ctx context.Context, store session.Store, mode model.Mode, scope model.Scope, verbose bool) error {
	return store.UpdateSettings(ctx, session.Settings{
		Mode:    mode.String(),
		Scope:   scope.String(),
		Verbose: verbose,
	})
}

func defaultProvider(name string) string {
	if name == "" {
		return "gemini"
	}
	return name
}

func createProvider(providerName string) (llm.Provider, config.Settings, error) {
	providerName = defaultProvider(providerName)

	providerType, err := llm.ParseProviderType(providerName)
	if err != nil {
		return nil, config.Settings{}, err
	}

	settings, err := config.New(providerName)
	if err != nil {
		return nil, config.Settings{}, err
	}

	apiKey, err := config.APIKeyFor(providerName)
	if err != nil {
		return nil, config.Settings{}, err
	}

	provider, err := providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
	if err != nil {
		return nil, config.Settings{}, err
	}
	return provider, settings, nil
}
