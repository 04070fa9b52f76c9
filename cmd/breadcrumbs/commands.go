// commands.go contains the cobra command definitions and their flag
// configurations. Each builder wires a command to its handler.
package main

import (
	"github.com/spf13/cobra"
)

const defaultConfigName = "breadcrumbs.yaml"

// buildServeCmd creates the "serve" command that starts the HTTP
// remote-access server.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Breadcrumbs HTTP server",
		Long: `Start the HTTP remote-access server.

The server exposes the original desktop API: health, tool listing, and
chat, guarded by bearer auth. Graceful shutdown on SIGINT/SIGTERM.`,
		Example: `  # Start with default config
  breadcrumbs serve

  # Start with custom config and debug logging
  breadcrumbs serve --config /etc/breadcrumbs.yaml --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigName,
		"Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

// buildChatCmd creates the interactive "chat" command.
func buildChatCmd() *cobra.Command {
	var (
		configPath string
		provider   string
		noTools    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant interactively",
		Long: `Start an interactive chat session in the terminal.

Commands inside the session:
  /clear   reset the conversation
  /tools   list available tools
  /quit    exit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), configPath, provider, noTools)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigName,
		"Path to YAML configuration file")
	cmd.Flags().StringVarP(&provider, "provider", "p", "",
		"LLM provider to use (overrides config default)")
	cmd.Flags().BoolVar(&noTools, "no-tools", false,
		"Disable tool usage for this session")

	return cmd
}

// buildToolsCmd creates the "tools" command group.
func buildToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the diagnostic tool set",
	}

	var configPath string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available tools and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToolsList(configPath)
		},
	}
	listCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigName,
		"Path to YAML configuration file")

	cmd.AddCommand(listCmd)
	return cmd
}

// buildKeysCmd creates the "keys" command group for the credential store.
func buildKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys",
		Long:  "Store provider API keys in a local credential file instead of the config.",
	}

	setCmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key for a provider (prompts, input hidden)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysSet(args[0])
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysDelete(args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List providers with stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysList()
		},
	}

	cmd.AddCommand(setCmd, deleteCmd, listCmd)
	return cmd
}

// buildTokenCmd creates the "token" command for remote-access JWTs.
func buildTokenCmd() *cobra.Command {
	var (
		configPath string
		subject    string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a remote-access JWT",
		Long:  "Issue a signed bearer token for the HTTP API. Requires auth.jwt_secret in the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(configPath, subject)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigName,
		"Path to YAML configuration file")
	cmd.Flags().StringVarP(&subject, "subject", "s", "desktop",
		"Token subject")

	return cmd
}
