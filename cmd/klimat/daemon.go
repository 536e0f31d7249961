package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klimat/klimat/internal/daemon"
	"github.com/klimat/klimat/internal/dashboard"
	"github.com/klimat/klimat/internal/syncer"
)

var daemonNoDashboard bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon",
	Long: `Run the background sync daemon. It probes connectivity, drains the
sync queue whenever a connection is available, refreshes market prices,
imports snapshot files dropped into the spool directory, and serves a
live status dashboard over websockets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dcfg := &daemon.Config{
			FlushInterval:        cfg.FlushInterval,
			PriceRefreshInterval: cfg.PriceRefreshInterval,
			ProbeInterval:        cfg.ProbeInterval,
			DebounceInterval:     daemon.DefaultConfig().DebounceInterval,
			SpoolDir:             cfg.SpoolDir,
			LogFile:              cfg.LogFile,
			Logger:               daemon.DefaultConfig().Logger,
		}

		if !daemonNoDashboard {
			srv := dashboard.NewServer(db, sy, mon, &dashboard.Config{
				Port: cfg.DashboardPort,
			})
			if err := srv.Start(); err != nil {
				return fmt.Errorf("failed to start dashboard: %w", err)
			}
			defer srv.Stop()
			dcfg.OnFlush = func(report syncer.Report) {
				srv.BroadcastFlush(report)
				srv.BroadcastPending(ctx)
			}
			fmt.Printf("Dashboard on http://localhost:%d\n", cfg.DashboardPort)
		}

		d, err := daemon.New(db, sy, mon, client, dcfg)
		if err != nil {
			return err
		}
		return d.Start(ctx)
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonNoDashboard, "no-dashboard", false, "disable the status dashboard")
}
