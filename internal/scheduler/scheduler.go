// Package scheduler runs the periodic sweeps on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/pickup-services/internal/metrics"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Job does one sweep at now and reports how many items it handled.
type Job func(ctx context.Context, now time.Time) (int, error)

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// New builds a scheduler evaluating specs in loc. A run still in progress
// when its next tick fires makes that tick a no-op.
func New(loc *time.Location, timeout time.Duration) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		timeout: timeout,
	}
}

// Add registers job under name on a standard five-field spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("scheduling %s on %q: %w", name, spec, err)
	}
	log.Infof("job %s scheduled on %q", name, spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn("scheduler stopped before running jobs finished")
	}
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		n, err := job(ctx, start.UTC())
		metrics.JobRuns.WithLabelValues(name, metrics.Outcome(err)).Inc()

		entry := log.WithFields(log.Fields{"job": name, "took": time.Since(start)})
		if err != nil {
			entry.WithError(err).Error("Error [Scheduler] job failed")
			return
		}
		entry.WithField("handled", n).Info("job done")
	}
}
