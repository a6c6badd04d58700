package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "vanish-cli",
	Short: "Vanish CLI tool",
	Long: `Vanish CLI is a command-line client for a Vanish server.

Available commands:
  create    Create a new ephemeral room and print its shareable link
  join      Join a room from a terminal and chat interactively

Use "vanish-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the Vanish server")
}
