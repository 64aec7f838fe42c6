// Package main provides the repoassist CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/repoassist/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	provider      string
	mode          string
	scope         string
	maxTurns      int
	sessionID     string
	trackerExport string
	verbose       bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "repoassist",
		Short: "AI-powered repository assistant with citations and session history",
		Long: `A CLI tool that answers questions about a code repository.

An LLM responder searches the code, reads files and queries the issue
tracker through a bounded tool loop; answers come back with file and
line citations, optional patches, and suggested next actions.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "gemini", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "explain", "Response mode (explain, locate, suggest, patch)")
	rootCmd.PersistentFlags().StringVar(&scope, "scope", "include-pr", "Tool scope (files-only, include-pr)")
	rootCmd.PersistentFlags().IntVar(&maxTurns, "max-turns", 0, "Maximum responder turns per query (0 = config default)")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "Resume an existing session by ID")
	rootCmd.PersistentFlags().StringVar(&trackerExport, "tracker-export", "", "Path to an issue/PR snapshot JSON file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show tool calls and debug info")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildOptions(output string) cli.Options {
	opts := cli.DefaultOptions()
	opts.Provider = provider
	opts.Mode = mode
	opts.Scope = scope
	opts.MaxTurns = maxTurns
	opts.SessionID = sessionID
	opts.TrackerExport = trackerExport
	opts.Verbose = verbose
	if output != "" {
		opts.Output = output
	}
	return opts
}

func askCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "ask [repo-path] [query]",
		Short: "Ask a single question about a repository",
		Long: `Run one query through the responder loop and print the answer.

Examples:
  repoassist ask ./my-repo "How does authentication work?"
  repoassist ask ./my-repo "Where is the login handler?" --mode locate --scope files-only
  repoassist ask ./my-repo "Fix the nil check in auth.go" --mode patch
  repoassist ask ./my-repo "Follow up question" --session abc123def456
  repoassist ask ./my-repo "Explain the DB schema" --output json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(context.Background(), args[0], args[1], buildOptions(output))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")

	return cmd
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [repo-path]",
		Short: "Start an interactive session against a repository",
		Long: `Start an interactive chat. Mode and scope can be switched mid-session
with 'mode <name>' and 'scope <name>'; switches persist to the session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Chat(context.Background(), args[0], buildOptions(""))
		},
	}

	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored session IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListSessions(context.Background(), buildOptions(""))
		},
	}

	return cmd
}
