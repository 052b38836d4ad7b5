package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critsec/iams/pkg/dashboard"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Fetch the aggregated dashboard",
	RunE:  runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	client := newClient()

	var payload dashboard.Payload
	if err := client.getJSON("/api/v1/dashboard", &payload); err != nil {
		return err
	}

	if outputFmt == "json" {
		return printJSON(payload)
	}

	fmtStat := func(s dashboard.WindowStat) string {
		return fmt.Sprintf("%d (%+d, %+.1f%%)", s.Count, s.DeltaCount, s.DeltaPercent)
	}
	printTable([]string{"Window", "Activities"}, [][]string{
		{"All time", fmtStat(payload.ActivitiesAllTime)},
		{"Today", fmtStat(payload.ActivitiesToday)},
		{"This week", fmtStat(payload.ActivitiesThisWeek)},
		{"This month", fmtStat(payload.ActivitiesThisMonth)},
	})

	fmt.Println()
	printTable([]string{"Type", "Total"}, [][]string{
		{"VMs", fmt.Sprint(payload.TypeTotals.VMs)},
		{"Images", fmt.Sprint(payload.TypeTotals.Images)},
		{"Logs", fmt.Sprint(payload.TypeTotals.Logs)},
		{"DATs", fmt.Sprint(payload.TypeTotals.Dats)},
	})

	if len(payload.TopEmployees) > 0 {
		fmt.Println()
		rows := make([][]string, len(payload.TopEmployees))
		for i, r := range payload.TopEmployees {
			rows[i] = []string{fmt.Sprint(r.ID), fmt.Sprint(r.Count), fmt.Sprintf("%.1f%%", r.Percentage)}
		}
		printTable([]string{"Employee", "Activities", "Relative"}, rows)
	}

	return nil
}
