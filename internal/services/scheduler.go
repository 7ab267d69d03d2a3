package services

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/transparencity/backend/internal/logger"
)

// ExpiredCloser closes votes whose deadline has passed.
type ExpiredCloser interface {
	CloseExpired() (int, error)
}

// DeadlineScheduler periodically closes expired votes in the background.
type DeadlineScheduler struct {
	closer ExpiredCloser
	cron   *cron.Cron
	mu     sync.Mutex
}

func NewDeadlineScheduler(closer ExpiredCloser) *DeadlineScheduler {
	return &DeadlineScheduler{
		closer: closer,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules the sweep with a cron spec such as "@every 1m". An empty spec is a no-op.
func (d *DeadlineScheduler) Start(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := d.cron.AddFunc(spec, d.Sweep); err != nil {
		return err
	}
	d.cron.Start()
	logger.Log().WithField("spec", spec).Info("deadline sweep scheduled")
	return nil
}

// Sweep runs one pass immediately.
func (d *DeadlineScheduler) Sweep() {
	d.mu.Lock()
	defer d.mu.Unlock()
	closed, err := d.closer.CloseExpired()
	if err != nil {
		logger.Log().WithError(err).Warn("deadline sweep finished with errors")
	}
	if closed > 0 {
		logger.Log().WithField("closed", closed).Info("closed expired votes")
	}
}

// Stop halts scheduling and waits for a running sweep until ctx is done.
func (d *DeadlineScheduler) Stop(ctx context.Context) {
	done := d.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
