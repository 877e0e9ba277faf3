package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/routecard/registry/pkg/routecard"
)

var topCount int

var topCmd = &cobra.Command{
	Use:   "top {account|cluster}",
	Short: "Most frequent account or cluster numbers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var field routecard.TopField
		switch args[0] {
		case "account":
			field = routecard.TopFieldAccountNumber
		case "cluster":
			field = routecard.TopFieldClusterNumber
		default:
			return fmt.Errorf("unknown field %q (use account or cluster)", args[0])
		}

		engine, err := openEngine()
		if err != nil {
			return err
		}

		values := engine.Top(field, topCount)
		if outputFmt != "table" {
			return printOutput(values)
		}

		rows := make([][]string, 0, len(values))
		for _, v := range values {
			rows = append(rows, []string{v.Value, strconv.FormatInt(v.Count, 10)})
		}
		printTable([]string{"Value", "Count"}, rows)
		return nil
	},
}

func init() {
	topCmd.Flags().IntVarP(&topCount, "n", "n", 0, "How many values to return (0 = configured default)")
}
