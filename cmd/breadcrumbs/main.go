// Package main provides the CLI entry point for Breadcrumbs, a desktop
// diagnostic assistant that lets an LLM inspect the local machine
// through a fixed set of tools.
//
// # Basic Usage
//
// Chat interactively:
//
//	breadcrumbs chat
//
// Start the remote-access HTTP server:
//
//	breadcrumbs serve --config breadcrumbs.yaml
//
// Store a provider API key:
//
//	breadcrumbs keys set anthropic
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "breadcrumbs",
		Short: "Breadcrumbs - local diagnostic assistant",
		Long: `Breadcrumbs is a desktop assistant that answers questions about your
machine by letting an LLM run local diagnostic tools: VPN detection,
DNS lookups, connectivity probes, host info, and process inspection.

Supported LLM providers: Anthropic (Claude), OpenAI (GPT), Ollama (local)`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildChatCmd(),
		buildToolsCmd(),
		buildKeysCmd(),
		buildTokenCmd(),
	)

	return rootCmd
}
