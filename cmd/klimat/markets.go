package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/model"
)

var marketsListRegion string

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List nearby markets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var list []model.Market
		var err error
		if marketsListRegion != "" {
			list, err = markets.ByRegion(ctx, marketsListRegion)
		} else {
			list, err = markets.Markets(ctx)
		}
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No markets cached. Run `klimat setup` first.")
			return nil
		}
		for _, m := range list {
			line := fmt.Sprintf("  %-14s %-24s %s", m.ID, m.Name, m.Region)
			if m.Distance > 0 {
				line += fmt.Sprintf(" (%d km)", m.Distance)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	marketsCmd.Flags().StringVar(&marketsListRegion, "region", "", "filter by region id")
}
