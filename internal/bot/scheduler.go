package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// minInterval is the floor for the scan interval; the exchange data does not
// update fast enough to justify anything tighter.
const minInterval = 5 * time.Minute

// Scheduler runs a job on wall-clock aligned ticks. Ticks land on multiples
// of the interval within the hour (:00, :10, :20 for a 10 minute interval),
// and the job runs sequentially, so a slow tick delays the next rather than
// overlapping it.
type Scheduler struct {
	Interval time.Duration
	Log      zerolog.Logger

	now func() time.Time
}

func NewScheduler(interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval < minInterval {
		interval = minInterval
	}
	return &Scheduler{Interval: interval, Log: log, now: time.Now}
}

// nextTick returns the next wall-clock time aligned to the interval.
func (s *Scheduler) nextTick(from time.Time) time.Time {
	return from.Truncate(s.Interval).Add(s.Interval)
}

// Run executes the job on every aligned tick until the context is canceled.
// The job also runs once immediately on start.
func (s *Scheduler) Run(ctx context.Context, job func(context.Context)) {
	s.Log.Info().Dur("interval", s.Interval).Msg("scheduler started")

	job(ctx)

	for {
		next := s.nextTick(s.now())
		wait := time.Until(next)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.Log.Info().Msg("scheduler stopped")
			return
		case <-timer.C:
		}

		job(ctx)
	}
}
