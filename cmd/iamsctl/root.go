// Package main provides iamsctl, a CLI client for the asset management API.
package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
)

var rootCmd = &cobra.Command{
	Use:   "iamsctl",
	Short: "CLI for the asset management server",
	Long: `iamsctl talks to a running iams server over its HTTP API.

It can fetch the dashboard, list event streams and assets, and check that
the server and its database are reachable.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json")

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(assetsCmd)
	rootCmd.AddCommand(pingCmd)
}

// Error categories for the process exit code: 1 is a usage or configuration
// problem, 2 an unreachable server or database, 3 an integrity violation
// reported by the API.
var (
	errUnreachable = errors.New("unreachable")
	errIntegrity   = errors.New("integrity")
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, errUnreachable):
		return 2
	case errors.Is(err, errIntegrity):
		return 3
	default:
		return 1
	}
}
