// Package scheduler runs the recurring background jobs: reference cache
// refresh, conference link health checks, and statistic broadcasts.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mkamenev/clinicbot/core/logger"
	"github.com/mkamenev/clinicbot/internal/flows"
	"github.com/mkamenev/clinicbot/internal/links"
	"github.com/mkamenev/clinicbot/internal/stats"
)

// Refresher recomputes every cached reference value.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Config holds the broadcast targets.
type Config struct {
	OpsChatID   int64
	StatsChatID int64
	JobTimeout  time.Duration
}

// Scheduler owns the cron runner and its job dependencies.
type Scheduler struct {
	cron    *cron.Cron
	refresh Refresher
	links   flows.LinkProvider
	stats   *stats.Service
	notify  flows.Notifier
	cfg     Config
}

// New builds a scheduler; Start wires and starts the jobs.
func New(refresh Refresher, lp flows.LinkProvider, st *stats.Service, notify flows.Notifier, cfg Config) *Scheduler {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		refresh: refresh,
		links:   lp,
		stats:   st,
		notify:  notify,
		cfg:     cfg,
	}
}

// Start registers the recurring jobs and launches the cron loop.
//
// Broadcast minutes are staggered so the jobs never contend on the first
// of a quarter, which is also a month start and possibly a year start.
func (s *Scheduler) Start() error {
	jobs := []struct {
		spec string
		name string
		run  func(ctx context.Context) error
	}{
		{"@every 24h", "cache.refresh", s.refresh.RefreshAll},
		{"1 5 * * *", "links.health", s.checkLinks},
		{"2 0 * * 0", "stats.weekly", s.broadcast(stats.PeriodWeek)},
		{"3 0 1 * *", "stats.monthly", s.broadcast(stats.PeriodMonth)},
		{"4 0 1 1,4,7,10 *", "stats.quarterly", s.broadcast(stats.PeriodQuarter)},
		{"5 0 1 1 *", "stats.yearly", s.broadcast(stats.PeriodYear)},
	}
	for _, j := range jobs {
		job := j
		_, err := s.cron.AddFunc(job.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
			defer cancel()
			if err := job.run(ctx); err != nil {
				logger.Sched.LogAttrs(ctx, slog.LevelError, "job.failed",
					slog.String("job", job.name), slog.Any("error", err))
				return
			}
			logger.Sched.LogAttrs(ctx, slog.LevelInfo, "job.done", slog.String("job", job.name))
		})
		if err != nil {
			return fmt.Errorf("scheduler: add %s: %w", job.name, err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// checkLinks generates a probe conference link and alerts operations when
// the generator is down or returns garbage.
func (s *Scheduler) checkLinks(ctx context.Context) error {
	url, err := s.links.Generate(ctx)
	if err == nil && links.ValidURL(url) {
		return nil
	}
	alert := "Генератор ссылок на консультации не отвечает."
	if err == nil {
		alert = fmt.Sprintf("Генератор ссылок вернул некорректный адрес: %q", url)
	}
	if nerr := s.notify.Notify(ctx, s.cfg.OpsChatID, alert); nerr != nil {
		return fmt.Errorf("scheduler: link alert: %w", nerr)
	}
	if err != nil {
		return fmt.Errorf("scheduler: link probe: %w", err)
	}
	return nil
}

func (s *Scheduler) broadcast(p stats.Period) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		summary, err := s.stats.ForPeriod(ctx, p, time.Now())
		if err != nil {
			return err
		}
		text := flows.FormatSummary(summary, flows.PeriodTitle(p))
		return s.notify.Notify(ctx, s.cfg.StatsChatID, text)
	}
}
