package jobs

import (
	"context"
	"fmt"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
)

// SendPendingDigest emails admins the list of applications still awaiting a
// decision. Nothing is sent when the queue is empty.
func (jr *JobRunner) SendPendingDigest() bool {
	return jr.runWithRecovery(JobPendingDigest, func(ctx context.Context) error {
		pending, err := jr.services.Applications.List(ctx, domain.ApplicationFilter{Status: domain.ApplicationStatusPending})
		if err != nil {
			return fmt.Errorf("failed to list pending applications: %w", err)
		}
		if len(pending) == 0 {
			logger.Info("No pending applications, digest skipped")
			return nil
		}

		if err := jr.services.Email.SendPendingDigest(ctx, pending); err != nil {
			return fmt.Errorf("failed to send pending digest: %w", err)
		}
		logger.Info("Pending digest sent", "pending", len(pending))
		return nil
	})
}
