package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point when the application is called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "leaguelink",
	Short: "Fantasy-league gateway for AI assistants",
	Long: `leaguelink serves fantasy-league data (standings, rosters, matchups,
transactions, free agents) from ESPN, Yahoo and Sleeper through one MCP
endpoint, with an OAuth 2.1 authorization surface for external AI clients.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "leaguelink version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
