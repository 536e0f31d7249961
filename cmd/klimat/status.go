package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Connection and sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		probe(ctx)

		version, err := db.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		pending, err := sy.PendingByStore(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ui.Header("Klimat"))
		fmt.Println("  " + ui.Field("server", cfg.ServerURL))
		fmt.Println("  " + ui.Field("connection", ui.Connectivity(mon.Online())))
		fmt.Println("  " + ui.Field("database", cfg.DBPath))
		fmt.Println("  " + ui.Field("schema", "v"+strconv.Itoa(version)))

		if len(pending) == 0 {
			fmt.Println("  " + ui.Field("pending sync", "none"))
			return nil
		}
		total := 0
		for _, n := range pending {
			total += n
		}
		fmt.Println("  " + ui.Field("pending sync", strconv.Itoa(total)))
		for name, n := range pending {
			fmt.Printf("    %-22s %d\n", name, n)
		}
		return nil
	},
}
