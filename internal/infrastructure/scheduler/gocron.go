package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"BioDigest/internal/period"
	"BioDigest/internal/ports"
)

// Driver runs the registered job daily at each configured HH:MM report time,
// in the configured timezone.
type Driver struct {
	scheduler gocron.Scheduler
	times     []string
	location  *time.Location
	logger    *slog.Logger
}

var _ ports.Scheduler = (*Driver)(nil)

// NewDriver builds a timezone-aware scheduler for the report times.
func NewDriver(times []string, location *time.Location, logger *slog.Logger) (*Driver, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(location))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Driver{
		scheduler: sched,
		times:     times,
		location:  location,
		logger:    logger,
	}, nil
}

// Start registers one daily job per report time and begins scheduling.
// An unparseable report time is logged and skipped, not fatal.
func (d *Driver) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	registered := 0
	for _, at := range d.times {
		hour, minute, err := period.ParseClock(at)
		if err != nil {
			d.logger.Error("invalid report time", "value", at, "error", err)
			continue
		}

		scheduled, err := d.scheduler.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
			gocron.NewTask(func() {
				job(time.Now().In(d.location))
			}),
			gocron.WithName("digest_"+at),
		)
		if err != nil {
			return fmt.Errorf("register job %s: %w", at, err)
		}

		registered++
		if next, err := scheduled.NextRun(); err == nil {
			d.logger.Info("scheduled digest", "time", at, "nextRun", next.Format(time.RFC3339))
		}
	}

	if registered == 0 {
		return fmt.Errorf("no valid report times configured")
	}

	d.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (d *Driver) Stop(ctx context.Context) error {
	return d.scheduler.Shutdown()
}
