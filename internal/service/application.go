package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/metrics"
	"facingcourage-backend/internal/repository"
)

var ErrReviewerRequired = errors.New("reviewer is required")

type applicationService struct {
	appRepo       repository.ApplicationRepository
	emailSvc      EmailService
	lockDecisions bool
}

func NewApplicationService(appRepo repository.ApplicationRepository, emailSvc EmailService, lockDecisions bool) ApplicationService {
	return &applicationService{
		appRepo:       appRepo,
		emailSvc:      emailSvc,
		lockDecisions: lockDecisions,
	}
}

func (s *applicationService) Submit(ctx context.Context, app *domain.Application) (*domain.Application, error) {
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	metrics.RecordSubmission()
	logger.InfoContext(ctx, "Application submitted", "applicationID", app.ID, "role", app.Role)

	// The submission is stored; a failed notice must not fail the request.
	if err := s.emailSvc.SendNewApplicationNotice(ctx, app); err != nil {
		logger.WarnContext(ctx, "Failed to send new application notice", "applicationID", app.ID, "error", err)
	}
	return app, nil
}

func (s *applicationService) Get(ctx context.Context, id int32) (*domain.Application, error) {
	return s.appRepo.GetByID(ctx, id)
}

func (s *applicationService) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	if filter.Status != "" {
		if _, err := domain.ParseApplicationStatus(string(filter.Status)); err != nil {
			return nil, err
		}
	}
	return s.appRepo.List(ctx, filter)
}

func (s *applicationService) Review(ctx context.Context, id int32, status domain.ApplicationStatus, reviewer string, channel ReviewChannel) (*domain.Application, error) {
	if _, err := domain.ParseApplicationStatus(string(status)); err != nil {
		return nil, err
	}
	if reviewer == "" {
		return nil, ErrReviewerRequired
	}

	app, err := s.appRepo.UpdateStatus(ctx, id, status, reviewer, s.lockDecisions)
	if err != nil {
		return nil, err
	}
	metrics.RecordReview(string(status), string(channel))
	logger.InfoContext(ctx, "Application status changed",
		"applicationID", id, "status", status, "reviewer", reviewer, "channel", channel)
	return app, nil
}

func (s *applicationService) Stats(ctx context.Context) (*domain.ApplicationStats, error) {
	counts, err := s.appRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &domain.ApplicationStats{
		Pending:  counts[domain.ApplicationStatusPending],
		Approved: counts[domain.ApplicationStatusApproved],
		Rejected: counts[domain.ApplicationStatusRejected],
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected
	return stats, nil
}

func (s *applicationService) Export(ctx context.Context, w io.Writer) error {
	apps, err := s.appRepo.List(ctx, domain.ApplicationFilter{})
	if err != nil {
		return err
	}
	return WriteApplicationsWorkbook(w, apps)
}
