package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routecard/registry/pkg/routecard"
)

var (
	searchTerm string
	listLimit  int
	listOffset int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List blanks, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		var cards []routecard.RouteCard
		if searchTerm != "" {
			cards = store.Search(searchTerm)
		} else {
			cards = store.ListRecords(listLimit, listOffset)
		}

		if outputFmt != "table" {
			return printOutput(cards)
		}

		headers := []string{"ID", "Serial", "Account Number", "Cluster Number", "Status", "Created At"}
		rows := make([][]string, 0, len(cards))
		for _, c := range cards {
			rows = append(rows, []string{
				strconv.FormatInt(c.ID, 10),
				c.Serial,
				c.AccountNumber,
				c.ClusterNumber,
				c.Status,
				c.CreatedAt,
			})
		}
		printTable(headers, rows)
		fmt.Printf("Total: %d\n", len(cards))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&searchTerm, "search", "s", "", "Substring to match against serial, account and cluster numbers")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum rows to return")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Rows to skip")
}
