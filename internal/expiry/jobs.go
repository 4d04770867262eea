package expiry

import (
	"context"
	"sync"
	"time"

	"ticketing/internal/shared/config"
	"ticketing/internal/shared/constants"
	"ticketing/pkg/logger"
)

// JobConfig contains configuration for the expiry job
type JobConfig struct {
	PollInterval  time.Duration
	MaxPendingAge time.Duration
	LockTTL       time.Duration
}

// DefaultJobConfig returns default job configuration
func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		PollInterval:  30 * time.Second,
		MaxPendingAge: 2 * time.Minute,
		LockTTL:       25 * time.Second, // must stay below PollInterval
	}
}

// JobConfigFrom maps the expiry section of the service config
func JobConfigFrom(cfg config.ExpiryConfig) *JobConfig {
	return &JobConfig{
		PollInterval:  cfg.PollInterval,
		MaxPendingAge: cfg.MaxPendingAge,
		LockTTL:       cfg.LockTTL,
	}
}

// JobProcessor runs the sweeper on a fixed interval
type JobProcessor struct {
	sweeper  *Sweeper
	locker   Locker
	config   *JobConfig
	log      *logger.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewJobProcessor creates a new job processor; locker may be nil
func NewJobProcessor(sweeper *Sweeper, locker Locker, config *JobConfig, log *logger.Logger) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		sweeper: sweeper,
		locker:  locker,
		config:  config,
		log:     log.WithComponent("expiry"),
		done:    make(chan struct{}),
	}
}

// Run blocks, sweeping every PollInterval until ctx is cancelled or Stop is called
func (jp *JobProcessor) Run(ctx context.Context) error {
	ticker := time.NewTicker(jp.config.PollInterval)
	defer ticker.Stop()

	jp.log.Info("Started booking expiry job",
		"interval", jp.config.PollInterval.String(),
		"max_pending_age", jp.config.MaxPendingAge.String(),
	)

	for {
		select {
		case <-ticker.C:
			jp.RunOnce(ctx)
		case <-jp.done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop stops the job loop
func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() {
		close(jp.done)
		jp.log.Info("Stopped booking expiry job")
	})
}

// RunOnce performs one tick. Failures are logged by the sweeper and retried next tick.
func (jp *JobProcessor) RunOnce(ctx context.Context) {
	if jp.locker != nil {
		release, acquired, err := jp.locker.TryLock(ctx, constants.LOCK_KEY_EXPIRY, jp.config.LockTTL)
		switch {
		case err != nil:
			// Sweeps are idempotent; without Redis every instance simply sweeps.
			jp.log.Warn("Expiry lock unavailable, sweeping without it", "error", err.Error())
		case !acquired:
			return
		default:
			defer release()
		}
	}

	_, _ = jp.sweeper.Sweep(ctx, jp.config.MaxPendingAge)
}

// GetJobStatus returns the configuration of the running job
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	return map[string]interface{}{
		"poll_interval":   jp.config.PollInterval.String(),
		"max_pending_age": jp.config.MaxPendingAge.String(),
		"locking":         jp.locker != nil,
		"status":          "running",
	}
}
