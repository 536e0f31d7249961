package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/remote"
	"github.com/klimat/klimat/internal/ui"
)

var pestsCmd = &cobra.Command{
	Use:   "pests",
	Short: "Pest and disease reference",
}

var pestsListCrop string

var pestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known pests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		list, err := pests.All(ctx)
		if err != nil {
			return err
		}
		if pestsListCrop != "" {
			list, err = pests.ByCrop(ctx, pestsListCrop)
			if err != nil {
				return err
			}
		}
		if len(list) == 0 {
			fmt.Println("No pests in the local catalog. Run `klimat setup` first.")
			return nil
		}
		for _, p := range list {
			fmt.Printf("  %-16s %s (crops: %s)\n", p.ID, p.Name, strings.Join(p.Crops, ", "))
		}
		return nil
	},
}

var pestsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show treatment details for a pest",
	Long: `Show full treatment details for a pest. Details are cached locally
after the first lookup, so they stay available offline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		pest, err := pests.Get(ctx, id)
		if err != nil {
			return err
		}
		if pest == nil {
			return fmt.Errorf("no pest with id %s in the local catalog", id)
		}

		details, err := pests.Details(ctx, id)
		if err != nil {
			return err
		}
		if details == nil {
			if !probe(ctx) {
				return fmt.Errorf("%w: details for %s are not cached", remote.ErrOffline, id)
			}
			details, err = client.PestDetails(ctx, id)
			if err != nil {
				return err
			}
			if err := pests.SaveDetails(ctx, details); err != nil {
				return err
			}
		}

		fmt.Println(ui.Header(pest.Name))
		fmt.Println("  " + ui.Field("crops", strings.Join(pest.Crops, ", ")))
		if details.Description != "" {
			fmt.Println("  " + details.Description)
		}
		for _, s := range details.Identification {
			fmt.Printf("  look for: %s\n", s)
		}
		for _, t := range details.TreatmentOptions {
			fmt.Printf("  %s:\n", t.Method)
			for _, o := range t.Options {
				fmt.Printf("    - %s\n", o)
			}
		}
		for _, p := range details.Prevention {
			fmt.Printf("  prevention: %s\n", p)
		}
		for _, a := range details.LocalAdvice {
			fmt.Printf("  local advice: %s\n", a)
		}
		return nil
	},
}

func init() {
	pestsListCmd.Flags().StringVar(&pestsListCrop, "crop", "", "filter by crop id")

	pestsCmd.AddCommand(pestsListCmd)
	pestsCmd.AddCommand(pestsShowCmd)
}
