// Package cli implements the tictac command line client
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tictac",
		Short: "Command line client for the tictacmatch server",
		Long: `tictac is a command line client for the tictacmatch matchmaking server.

It connects over websocket, joins the matchmaking queue and plays games
interactively from the terminal.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Websocket URL of the server (env: TICTAC_SERVER)")

	rootCmd.AddCommand(newPlayCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
