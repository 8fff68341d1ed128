package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	errs "igfeedsync/pkg/errors"
	"igfeedsync/pkg/logger"
)

// Scheduler runs the sync pipeline on a fixed interval. The job runs in
// singleton mode, so a slow sync never overlaps the next tick.
type Scheduler struct {
	syncer    *Syncer
	scheduler gocron.Scheduler
	interval  time.Duration
	logger    logger.Logger
}

// NewScheduler creates a scheduler that runs the syncer every interval.
func NewScheduler(syncer *Syncer, interval time.Duration, log logger.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %s", interval)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		syncer:    syncer,
		scheduler: s,
		interval:  interval,
		logger:    log,
	}, nil
}

// Run starts the periodic sync and blocks until ctx is cancelled. The
// first sync fires immediately; a failing run is logged and the
// schedule keeps going, since transient upstream trouble should not
// kill a long-running daemon.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			result, runErr := s.syncer.Run(ctx)
			if runErr != nil {
				if ctx.Err() != nil {
					return
				}
				fields := map[string]interface{}{"error": runErr.Error()}
				if errs.IsFatal(runErr) {
					s.logger.ErrorWithFields("Sync run failed, cache and manifest untouched", fields)
				} else {
					s.logger.ErrorWithFields("Sync run failed", fields)
				}
				return
			}
			s.logger.InfoWithFields("Scheduled sync finished", map[string]interface{}{
				"downloaded": result.Downloaded,
				"skipped":    result.Skipped,
				"failed":     result.Failed,
			})
		}),
		gocron.WithName("feed-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("create sync job: %w", err)
	}

	s.scheduler.Start()
	s.logger.InfoWithFields("Scheduler started", map[string]interface{}{
		"interval": s.interval.String(),
	})

	<-ctx.Done()
	return s.scheduler.Shutdown()
}
