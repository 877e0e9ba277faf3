package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routecard/registry/pkg/routecard"
)

var provisionFilePath string

var provisionCmd = &cobra.Command{
	Use:   "provision <serial>...",
	Short: "Register pending blanks",
	Long: `Provision registers blanks as pending so they can later be
completed under the preprovisioned policy. Serials already registered are
reported and skipped; the remaining ones are still created.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		var duplicates []string
		for _, serial := range args {
			card, err := store.InsertPending(serial, provisionFilePath)
			if errors.Is(err, routecard.ErrDuplicateSerial) {
				duplicates = append(duplicates, serial)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Printf("registered blank %q\n", card.Serial)
		}

		if len(duplicates) > 0 {
			return fmt.Errorf("already registered: %s", strings.Join(duplicates, ", "))
		}
		return nil
	},
}

func init() {
	provisionCmd.Flags().StringVar(&provisionFilePath, "file", "", "Document path to record on each blank")
}
