package jobs

import (
	"context"
	"fmt"
	"time"

	"facingcourage-backend/internal/config"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/metrics"
	"facingcourage-backend/internal/service"
)

// Job names accepted by RunJob and used as metric labels.
const (
	JobPendingDigest = "pending-digest"
)

const jobTimeout = 5 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Applications service.ApplicationService
	Email        service.EmailService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// RunJob runs a single job by name, for manual execution.
func (jr *JobRunner) RunJob(name string) error {
	switch name {
	case JobPendingDigest:
		if !jr.SendPendingDigest() {
			return fmt.Errorf("job %s failed", name)
		}
		return nil
	default:
		return fmt.Errorf("unknown job %q", name)
	}
}

// runWithRecovery wraps job execution with panic recovery and reports
// whether the job succeeded.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (ok bool) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			ok = false
		}
		metrics.RecordJobRun(jobName, ok)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	if err := jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return false
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return true
}
