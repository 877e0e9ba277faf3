package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/routecard/registry/internal/db"
	"github.com/routecard/registry/pkg/routecard"
)

var (
	configPath string
	outputFmt  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "cardreg",
	Short: "Track route-card blanks from issue to completion",
	Long: `cardreg records route-card blanks and drives them through the
completion workflow: a blank is checked by its serial, completed with an
account number and a cluster number, and reported on by period.

The database backend, the workflow policy and the search mode come from
the YAML config file; a missing file falls back to a local sqlite
database with the pre-provisioned policy.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "cardreg.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(topCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore loads the config, opens the configured database and returns a
// migrated store.
func openStore() (*routecard.CardStore, *routecard.Config, error) {
	cfg, err := routecard.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	gdb, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}

	store := routecard.NewCardStore(gdb, newLogger(), routecard.StoreOptions{
		CaseSensitiveSearch: cfg.Search.CaseSensitive,
	})
	if err := store.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("migrate schema: %w", err)
	}
	return store, cfg, nil
}
