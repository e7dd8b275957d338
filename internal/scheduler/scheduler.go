package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"latte/internal/core"
	"latte/internal/export"
)

// Reporter is the slice of the reporting engine the scheduler needs.
type Reporter interface {
	Farms(ctx context.Context) ([]string, error)
	FarmSummary(ctx context.Context, farm string) (core.FarmSummary, error)
}

// Scheduler periodically exports every farm's annual report through
// the configured sinks.
type Scheduler struct {
	cron        *cron.Cron
	reporter    Reporter
	sinks       []export.Sink
	schedule    string
	runTimeout  time.Duration
	parallelism int
	logger      *zap.Logger
}

// New creates a scheduler firing on the given standard 5-field cron
// schedule.
func New(reporter Reporter, sinks []export.Sink, schedule string, runTimeout time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:        cron.New(),
		reporter:    reporter,
		sinks:       sinks,
		schedule:    schedule,
		runTimeout:  runTimeout,
		parallelism: 4,
		logger:      logger,
	}
}

// Start registers the export job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule export job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("export scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("export scheduler stopped")
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled export cycle failed", zap.Error(err))
	}
}

// RunOnce exports the annual report of every farm through every sink,
// with bounded parallelism. One farm's failure is logged and does not
// abort the others; the returned error summarizes how many failed.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	farms, err := s.reporter.Farms(ctx)
	if err != nil {
		return fmt.Errorf("list farms for export: %w", err)
	}
	if len(farms) == 0 {
		s.logger.Info("no farms to export")
		return nil
	}

	var failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for _, farm := range farms {
		g.Go(func() error {
			if err := s.exportFarm(ctx, farm); err != nil {
				failed.Add(1)
				s.logger.Error("farm export failed",
					zap.String("farm", farm),
					zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("export fan-out: %w", err)
	}

	s.logger.Info("export cycle finished",
		zap.Int("farms", len(farms)),
		zap.Int64("failed", failed.Load()),
		zap.Duration("duration", time.Since(start)))

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d farm exports failed", n, len(farms))
	}
	return nil
}

func (s *Scheduler) exportFarm(ctx context.Context, farm string) error {
	summary, err := s.reporter.FarmSummary(ctx, farm)
	if err != nil {
		return fmt.Errorf("compute summary: %w", err)
	}

	for _, sink := range s.sinks {
		if err := sink.Export(ctx, farm, summary.Annual); err != nil {
			return fmt.Errorf("sink %s: %w", sink.Name(), err)
		}
	}
	return nil
}
