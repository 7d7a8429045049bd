package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"EconDash/internal/domain/models"
	applogger "EconDash/pkg/logger"

	"github.com/go-co-op/gocron"
)

// Runner is the update operation the schedule triggers.
type Runner interface {
	Run(ctx context.Context, opts models.RunOptions) (*models.RunSummary, error)
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// Scheduler triggers a non-forced update once a week inside a long-running
// server.
type Scheduler struct {
	cron    *gocron.Scheduler
	runner  Runner
	day     time.Weekday
	at      string
	timeout time.Duration
	l       *applogger.Logger
	job     *gocron.Job
}

// New builds a weekly schedule. day is a lowercase weekday name, at is HH:MM
// in the named timezone.
func New(runner Runner, day, at, timezone string, timeout time.Duration, l *applogger.Logger) (*Scheduler, error) {
	wd, ok := weekdays[strings.ToLower(day)]
	if !ok {
		return nil, fmt.Errorf("unknown weekday %q", day)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	if l == nil {
		l = applogger.Nop()
	}
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	return &Scheduler{cron: cron, runner: runner, day: wd, at: at, timeout: timeout, l: l.With("scheduler")}, nil
}

// Start registers the job and starts the scheduler in the background.
func (s *Scheduler) Start() error {
	job, err := s.cron.Every(1).Week().Weekday(s.day).At(s.at).Do(s.runOnce)
	if err != nil {
		return fmt.Errorf("schedule update: %w", err)
	}
	s.job = job
	s.cron.StartAsync()
	s.l.Info("weekly update scheduled",
		applogger.String("day", s.day.String()),
		applogger.String("at", s.at),
		applogger.Time("next_run", job.NextRun()),
	)
	return nil
}

// NextRun is the next scheduled run, zero before Start.
func (s *Scheduler) NextRun() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.runner.Run(ctx, models.RunOptions{Trigger: "schedule"})
	switch {
	case errors.Is(err, models.ErrRefreshInProgress):
		s.l.Info("scheduled update skipped, another run is active")
	case summary == nil && err != nil:
		s.l.Error("scheduled update failed", applogger.Error(err))
	default:
		fields := []applogger.Field{
			applogger.String("run_id", summary.RunID.String()),
			applogger.String("status", string(summary.Status)),
		}
		if err != nil {
			fields = append(fields, applogger.Error(err))
		}
		s.l.Info("scheduled update finished", fields...)
	}
}
