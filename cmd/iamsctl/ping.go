package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check server health and readiness",
	RunE:  runPing,
}

func runPing(cmd *cobra.Command, args []string) error {
	client := newClient()

	alive, err := client.getText("/healthz")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}

	ready, err := client.getText("/readyz")
	if err != nil {
		// The server is up but its database is not.
		return fmt.Errorf("server alive but not ready: %w", err)
	}

	if outputFmt == "json" {
		return printJSON(map[string]string{"health": alive, "readiness": ready})
	}

	printTable([]string{"Check", "Status"}, [][]string{
		{"Liveness", alive},
		{"Readiness", ready},
	})
	return nil
}
