package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ContentCurator/internal/ports"
)

// CronScheduler drives jobs from a standard five-field cron expression.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *log.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler; a nil location means UTC.
func NewCronScheduler(spec string, location *time.Location, logger *log.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	return &CronScheduler{spec: spec, location: location, logger: logger}
}

// Start registers job and starts the cron loop. Overlapping ticks are skipped.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	opts := []cron.Option{cron.WithLocation(c.location)}
	cronLogger := cron.DiscardLogger
	if c.logger != nil {
		cronLogger = cron.PrintfLogger(c.logger)
	}
	opts = append(opts, cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	cr := cron.New(opts...)
	if _, err := cr.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.spec, err)
	}
	cr.Start()
	c.cron = cr

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop halts the cron loop and waits for a running job up to ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr == nil {
		return nil
	}
	select {
	case <-cr.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
