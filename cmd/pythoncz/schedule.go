package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pyvec/pythoncz/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Rebuild the job board periodically",
	Long:  "Builds once immediately, then again on every tick of the configured cron schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	b, closeFn, err := newBuilder(cfg, logger)
	if err != nil {
		logger.Error("failed to set up build", "error", err)
		os.Exit(1)
	}
	defer closeFn()

	sched, err := scheduler.New(cfg.Schedule, b.build, logger)
	if err != nil {
		logger.Error("invalid schedule", "schedule", cfg.Schedule, "error", err)
		closeFn()
		os.Exit(1)
	}
	logger.Info("scheduler configured", "schedule", cfg.Schedule, "next", sched.Next(time.Now()).Format(time.RFC3339))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		closeFn()
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
