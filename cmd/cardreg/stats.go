package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routecard/registry/pkg/routecard"
)

var (
	statsPeriod string
	statsYear   int
)

func periodNames() string {
	names := make([]string, 0, len(routecard.Periods))
	for _, p := range routecard.Periods {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Completion statistics for a period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}

		s := engine.Summary(routecard.Period(statsPeriod))
		if outputFmt != "table" {
			return printOutput(s)
		}

		fmt.Printf("Period: %s (%s .. %s)\n", s.Period, s.Start, s.End)
		fmt.Printf("Total: %d\n", s.Total)
		fmt.Printf("Completed: %d\n", s.Completed)
		fmt.Printf("Incomplete: %d\n", s.Incomplete)
		fmt.Printf("Completion rate: %.1f%%\n", s.CompletionRate)
		return nil
	},
}

var statsMonthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Completions per calendar month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}

		buckets := engine.MonthlyHistogram(statsYear)
		if outputFmt != "table" {
			return printOutput(buckets)
		}

		rows := make([][]string, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, []string{
				strconv.Itoa(b.Year),
				fmt.Sprintf("%02d", b.Month),
				strconv.FormatInt(b.Count, 10),
			})
		}
		printTable([]string{"Year", "Month", "Completed"}, rows)
		return nil
	},
}

var statsYearlyCmd = &cobra.Command{
	Use:   "yearly",
	Short: "Blanks registered per calendar year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}

		buckets := engine.YearlyHistogram()
		if outputFmt != "table" {
			return printOutput(buckets)
		}

		rows := make([][]string, 0, len(buckets))
		for _, b := range buckets {
			rows = append(rows, []string{strconv.Itoa(b.Year), strconv.FormatInt(b.Count, 10)})
		}
		printTable([]string{"Year", "Count"}, rows)
		return nil
	},
}

var statsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Row counts per status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}

		breakdown := engine.StatusBreakdown()
		if outputFmt != "table" {
			return printOutput(breakdown)
		}

		rows := make([][]string, 0, len(breakdown))
		for _, status := range []string{routecard.StatusPending, routecard.StatusCompleted} {
			if n, ok := breakdown[status]; ok {
				rows = append(rows, []string{status, strconv.FormatInt(n, 10)})
			}
		}
		printTable([]string{"Status", "Count"}, rows)
		return nil
	},
}

func openEngine() (*routecard.ReportEngine, error) {
	store, cfg, err := openStore()
	if err != nil {
		return nil, err
	}
	return routecard.NewReportEngine(store, cfg.Reporting.TopN, nil, newLogger()), nil
}

func init() {
	statsCmd.Flags().StringVar(&statsPeriod, "period", string(routecard.PeriodAllTime),
		"Period to summarize: "+periodNames())
	statsMonthlyCmd.Flags().IntVar(&statsYear, "year", 0, "Restrict to one year (0 = all years)")

	statsCmd.AddCommand(statsMonthlyCmd)
	statsCmd.AddCommand(statsYearlyCmd)
	statsCmd.AddCommand(statsStatusCmd)
}
