package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/config"
	"github.com/klimat/klimat/internal/netmon"
	"github.com/klimat/klimat/internal/remote"
	"github.com/klimat/klimat/internal/service"
	"github.com/klimat/klimat/internal/store"
	"github.com/klimat/klimat/internal/syncer"
)

var (
	version = "dev"

	cfg    *config.Config
	db     *store.DB
	client *remote.Client
	mon    *netmon.Monitor
	sy     *syncer.Syncer

	tasks       *service.TaskService
	calendar    *service.CalendarService
	pests       *service.PestService
	markets     *service.MarketService
	marketplace *service.MarketplaceService
	setupSvc    *service.SetupService

	quiet *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "klimat",
	Short: "Offline-first farming assistant",
	Long: `Klimat keeps your farm tasks, crop calendar, pest library, and
market prices on this device. Everything works offline; changes queue
up and sync when a connection returns.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		db, err = store.Open(cfg.DBPath, store.DefaultRegistry())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Migrate(cmd.Context()); err != nil {
			db.Close()
			return err
		}

		quiet = log.New(io.Discard, "", 0)
		client = remote.NewClient(cfg.ServerURL)
		mon = netmon.New(client.Reachable, quiet)
		sy = syncer.New(db, mon, syncer.NewOutboxPusher(outboxDir()), quiet)

		tasks = service.NewTaskService(db, quiet)
		calendar = service.NewCalendarService(db, quiet)
		pests = service.NewPestService(db, quiet)
		markets = service.NewMarketService(db, quiet)
		marketplace = service.NewMarketplaceService(db, quiet)
		setupSvc = service.NewSetupService(db, client, quiet)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

func outboxDir() string {
	return filepath.Join(config.DataDir(), "outbox")
}

// probe checks the data service once and records the result.
func probe(ctx context.Context) bool {
	online := client.Reachable(ctx)
	mon.SetOnline(online)
	return online
}

func init() {
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(pestsCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(marketsCmd)
	rootCmd.AddCommand(sellCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(daemonCmd)
}
