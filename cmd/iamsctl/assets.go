package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/critsec/iams/pkg/registry"
)

var (
	assetsPage     int
	assetsPageSize int
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Work with the asset registry",
}

var assetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered assets",
	RunE:  runAssetsList,
}

func init() {
	assetsListCmd.Flags().IntVar(&assetsPage, "page", 1, "Page number")
	assetsListCmd.Flags().IntVar(&assetsPageSize, "page-size", 20, "Rows per page")
	assetsCmd.AddCommand(assetsListCmd)
}

func runAssetsList(cmd *cobra.Command, args []string) error {
	client := newClient()

	path := fmt.Sprintf("/api/v1/assets?page=%d&page_size=%d", assetsPage, assetsPageSize)
	var res struct {
		Items      []registry.Asset `json:"items"`
		TotalCount int64            `json:"total_count"`
		TotalPages int64            `json:"total_pages"`
	}
	if err := client.getJSON(path, &res); err != nil {
		return err
	}

	if outputFmt == "json" {
		return printJSON(res)
	}

	rows := make([][]string, len(res.Items))
	for i, a := range res.Items {
		lastLog := "-"
		if a.LastLogCollection != nil {
			lastLog = a.LastLogCollection.Format("2006-01-02")
		}
		rows[i] = []string{
			fmt.Sprint(a.ID), a.Name, fmt.Sprint(a.ProjectID), lastLog,
		}
	}
	printTable([]string{"ID", "Name", "Project", "Last Log"}, rows)
	fmt.Printf("\n%d rows, %d pages\n", res.TotalCount, res.TotalPages)
	return nil
}
