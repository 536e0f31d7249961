package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending local changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pending, err := sy.PendingCount(ctx)
		if err != nil {
			return err
		}
		if pending == 0 {
			fmt.Println("Nothing to sync.")
			return nil
		}

		if !probe(ctx) {
			fmt.Printf("%d records waiting, but %s is unreachable. They will sync later.\n",
				pending, cfg.ServerURL)
			return nil
		}

		report, err := sy.Flush(ctx)
		if err != nil {
			return err
		}
		remaining, err := sy.PendingCount(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d records", report.Pushed)
		if remaining > 0 {
			fmt.Printf(", %d still pending", remaining)
		}
		fmt.Println(".")
		return nil
	},
}
