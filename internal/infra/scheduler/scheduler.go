package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/yanqian/farmcast/internal/domain/weather"
)

// Ingestor runs one ingestion for a location.
type Ingestor interface {
	IngestLocation(ctx context.Context, loc weather.Location) (weather.IngestResult, error)
}

// Config holds the scheduled ingestion settings.
type Config struct {
	Interval    time.Duration
	RunTimeout  time.Duration
	Concurrency int
	Locations   []weather.Location
}

// Scheduler periodically ingests forecasts for the configured locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingestor  Ingestor
	cfg       Config
	logger    *slog.Logger
}

// New creates a scheduler. Nothing runs until Start.
func New(cfg Config, ingestor Ingestor, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		ingestor:  ingestor,
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the periodic job, running it once immediately.
func (s *Scheduler) Start() error {
	if len(s.cfg.Locations) == 0 {
		s.logger.Info("no locations configured; nothing to schedule")
		return nil
	}
	_, err := s.scheduler.Every(s.cfg.Interval).SingletonMode().Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduled ingestion started", "interval", s.cfg.Interval.String(), "locations", len(s.cfg.Locations))
	return nil
}

// RunOnce ingests every location. Failures are logged and never stop the other locations.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, loc := range s.cfg.Locations {
		loc := loc
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(gctx, s.cfg.RunTimeout)
			defer cancel()
			result, err := s.ingestor.IngestLocation(runCtx, loc)
			if err != nil {
				s.logger.Warn("scheduled ingestion failed", "location", loc.Key(), "failed_at", result.FailedAt, "error", err)
				return nil
			}
			s.logger.Info("scheduled ingestion finished", "location", loc.Key(), "status", result.Status, "alert_sent", result.AlertSent)
			return nil
		})
	}
	_ = g.Wait()
	s.logger.Info("scheduled ingestion cycle completed", "locations", len(s.cfg.Locations), "duration_ms", time.Since(start).Milliseconds())
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
