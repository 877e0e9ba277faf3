package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/routecard/registry/pkg/routecard"
)

var completeCmd = &cobra.Command{
	Use:   "complete <serial> [<account-number> <cluster-number>]",
	Short: "Complete a blank",
	Long: `Complete drives one blank through the whole workflow. Under the
preprovisioned policy the account number and the cluster number are
required; under the autoprovision policy the serial alone completes the
blank.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}

		wf, err := routecard.NewCompletionWorkflow(store, cfg.Workflow.Policy, newLogger())
		if err != nil {
			return err
		}

		out := wf.SubmitSerial(args[0])
		if !out.OK() {
			return errors.New(out.Message)
		}

		var account, cluster string
		if wf.Policy() == routecard.PolicyPreProvisioned {
			if len(args) != 3 {
				return fmt.Errorf("the %s policy requires an account number and a cluster number", wf.Policy())
			}
			account, cluster = args[1], args[2]
		}

		out = wf.SubmitDetails(account, cluster)
		if !out.OK() {
			return errors.New(out.Message)
		}
		fmt.Println(out.Message)
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <serial>",
	Short: "Check whether a blank can be completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}

		wf, err := routecard.NewCompletionWorkflow(store, cfg.Workflow.Policy, newLogger())
		if err != nil {
			return err
		}

		out := wf.SubmitSerial(args[0])
		if !out.OK() {
			return errors.New(out.Message)
		}
		fmt.Println(out.Message)
		return nil
	},
}
