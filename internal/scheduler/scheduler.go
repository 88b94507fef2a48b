// Package scheduler rebuilds the job board periodically.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// BuildFunc runs one complete build.
type BuildFunc func(ctx context.Context) error

// Scheduler runs a build on a cron schedule. Builds never overlap: a tick
// that arrives while a build is still running is skipped.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	schedule cron.Schedule
	build    BuildFunc
	logger   *slog.Logger
}

// New creates a scheduler for spec, which is a standard five-field cron
// expression or a descriptor such as "@every 6h" or "@daily".
func New(spec string, build BuildFunc, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return &Scheduler{
		cron:     c,
		spec:     spec,
		schedule: schedule,
		build:    build,
		logger:   logger,
	}, nil
}

// Next returns the first tick after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run builds once right away, then on every tick until ctx is cancelled. A
// failed build is logged and the next tick tries again. It returns nil when
// ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.runBuild(ctx) }))

	s.logger.Info("starting scheduler", "schedule", s.spec, "next", s.Next(time.Now()))
	s.runBuild(ctx)

	s.cron.Start()
	<-ctx.Done()

	s.logger.Info("shutting down scheduler")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) runBuild(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := s.build(ctx); err != nil {
		s.logger.Error("scheduled build failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("scheduled build done", "duration", time.Since(start))
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
