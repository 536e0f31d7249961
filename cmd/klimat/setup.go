package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/model"
	"github.com/klimat/klimat/internal/remote"
	"github.com/klimat/klimat/internal/ui"
)

var setupForce bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-run setup: pick your region and crops",
	Long: `Fetch the regional data bundle (pests, markets, prices), seed the
crop calendar, and generate this season's task list. Requires a
connection once; everything after that works offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !setupForce {
			done, err := setupSvc.Completed(ctx)
			if err != nil {
				return err
			}
			if done {
				fmt.Println("Setup has already run. Use --force to run again.")
				return nil
			}
		}

		if !probe(ctx) {
			return fmt.Errorf("%w: setup needs a connection to %s once", remote.ErrOffline, cfg.ServerURL)
		}

		regions, err := client.Regions(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch regions: %w", err)
		}
		crops, err := client.Crops(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch crops: %w", err)
		}

		regionOpts := make([]huh.Option[string], 0, len(regions))
		for _, r := range regions {
			regionOpts = append(regionOpts, huh.NewOption(r.Name, r.ID))
		}
		cropOpts := make([]huh.Option[string], 0, len(crops))
		for _, c := range crops {
			cropOpts = append(cropOpts, huh.NewOption(c.Name, c.ID))
		}

		var regionID string
		var cropIDs []string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Where do you farm?").
					Options(regionOpts...).
					Value(&regionID),
				huh.NewMultiSelect[string]().
					Title("What do you grow?").
					Options(cropOpts...).
					Validate(func(selected []string) error {
						if len(selected) == 0 {
							return fmt.Errorf("pick at least one crop")
						}
						return nil
					}).
					Value(&cropIDs),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		// Task dates anchor on the long-rains planting window.
		plantingStart := time.Date(time.Now().Year(), time.March, 25, 0, 0, 0, 0, time.Local)
		if err := setupSvc.Run(ctx, regionID, cropIDs, plantingStart); err != nil {
			return err
		}

		fmt.Println(ui.Header("Setup complete"))
		today, err := tasks.Today(ctx, time.Now())
		if err != nil {
			return err
		}
		printTasks(today)
		return nil
	},
}

func printTasks(list []model.Task) {
	if len(list) == 0 {
		fmt.Println("No tasks for today. Enjoy your day or check upcoming tasks.")
		return
	}
	for _, t := range list {
		fmt.Println("  " + ui.Task(t))
	}
}

func init() {
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "run setup again even if completed")
}
