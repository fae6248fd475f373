package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avvvet/pickup-services/internal/metrics"
	log "github.com/sirupsen/logrus"
)

const defaultTaskTimeout = 30 * time.Second

// Tasks runs fire-and-forget side effects outside the request that started them.
// Failures are logged, never returned.
type Tasks struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewTasks(timeout time.Duration) *Tasks {
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	return &Tasks{timeout: timeout}
}

func (t *Tasks) Go(name string, fields log.Fields, fn func(ctx context.Context) error) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		entry := log.WithFields(fields).WithField("task", name)
		defer func() {
			if r := recover(); r != nil {
				entry.WithError(fmt.Errorf("panic: %v", r)).Error("background task crashed")
				metrics.Tasks.WithLabelValues(name, "panic").Inc()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		start := time.Now()
		err := fn(ctx)
		metrics.Tasks.WithLabelValues(name, metrics.Outcome(err)).Inc()
		if err != nil {
			entry.WithError(err).Error("background task failed")
			return
		}
		entry.WithField("took", time.Since(start)).Info("background task done")
	}()
}

// Wait blocks until every started task has finished.
func (t *Tasks) Wait() {
	t.wg.Wait()
}
