package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newApplication() *domain.Application {
	return &domain.Application{
		Username:     "ghost",
		Discord:      "ghost#0001",
		Experience:   domain.ExperienceAdvanced,
		Role:         domain.RoleSniper,
		Availability: []string{domain.AvailabilityWeekends},
		Motivation:   "Milsim with a serious crew.",
		WhyAcceptYou: "Ten years of comms discipline.",
	}
}

func TestApplicationService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		email := new(MockEmailService)
		svc := service.NewApplicationService(repo, email, false)
		app := newApplication()

		repo.On("Create", ctx, app).Run(func(args mock.Arguments) {
			a := args.Get(1).(*domain.Application)
			a.ID = 7
			a.Status = domain.ApplicationStatusPending
		}).Return(nil).Once()
		email.On("SendNewApplicationNotice", ctx, app).Return(nil).Once()

		created, err := svc.Submit(ctx, app)
		require.NoError(t, err)
		assert.Equal(t, int32(7), created.ID)
		assert.Equal(t, domain.ApplicationStatusPending, created.Status)
		repo.AssertExpectations(t)
		email.AssertExpectations(t)
	})

	t.Run("EmailFailureIgnored", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		email := new(MockEmailService)
		svc := service.NewApplicationService(repo, email, false)
		app := newApplication()

		repo.On("Create", ctx, app).Return(nil).Once()
		email.On("SendNewApplicationNotice", ctx, app).Return(errors.New("smtp down")).Once()

		_, err := svc.Submit(ctx, app)
		assert.NoError(t, err)
	})

	t.Run("RepoFailure", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		email := new(MockEmailService)
		svc := service.NewApplicationService(repo, email, false)
		app := newApplication()

		repo.On("Create", ctx, app).Return(errors.New("db down")).Once()

		_, err := svc.Submit(ctx, app)
		assert.Error(t, err)
		email.AssertNotCalled(t, "SendNewApplicationNotice", mock.Anything, mock.Anything)
	})
}

func TestApplicationService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockApplicationRepo)
	svc := service.NewApplicationService(repo, new(MockEmailService), false)

	filter := domain.ApplicationFilter{Status: domain.ApplicationStatusPending}
	repo.On("List", ctx, filter).Return([]domain.Application{{ID: 1}}, nil).Once()

	apps, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	_, err = svc.List(ctx, domain.ApplicationFilter{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	repo.AssertExpectations(t)
}

func TestApplicationService_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("Approve", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		svc := service.NewApplicationService(repo, new(MockEmailService), false)
		reviewer := "alice"
		now := time.Now().UTC()
		updated := &domain.Application{ID: 3, Status: domain.ApplicationStatusApproved, ReviewedBy: &reviewer, ReviewedAt: &now}

		repo.On("UpdateStatus", ctx, int32(3), domain.ApplicationStatusApproved, "alice", false).Return(updated, nil).Once()

		app, err := svc.Review(ctx, 3, domain.ApplicationStatusApproved, "alice", service.ReviewChannelAdmin)
		require.NoError(t, err)
		assert.Equal(t, "alice", *app.ReviewedBy)
		repo.AssertExpectations(t)
	})

	t.Run("LockDecisions", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		svc := service.NewApplicationService(repo, new(MockEmailService), true)

		repo.On("UpdateStatus", ctx, int32(3), domain.ApplicationStatusRejected, domain.SystemReviewer, true).
			Return(nil, domain.ErrAlreadyReviewed).Once()

		_, err := svc.Review(ctx, 3, domain.ApplicationStatusRejected, domain.SystemReviewer, service.ReviewChannelLegacy)
		assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
		repo.AssertExpectations(t)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		svc := service.NewApplicationService(repo, new(MockEmailService), false)

		_, err := svc.Review(ctx, 3, "maybe", "alice", service.ReviewChannelAdmin)
		assert.ErrorIs(t, err, domain.ErrInvalidStatus)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MissingReviewer", func(t *testing.T) {
		svc := service.NewApplicationService(new(MockApplicationRepo), new(MockEmailService), false)

		_, err := svc.Review(ctx, 3, domain.ApplicationStatusApproved, "", service.ReviewChannelAdmin)
		assert.ErrorIs(t, err, service.ErrReviewerRequired)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		svc := service.NewApplicationService(repo, new(MockEmailService), false)

		repo.On("UpdateStatus", ctx, int32(99), domain.ApplicationStatusApproved, "alice", false).
			Return(nil, domain.ErrApplicationNotFound).Once()

		_, err := svc.Review(ctx, 99, domain.ApplicationStatusApproved, "alice", service.ReviewChannelAdmin)
		assert.ErrorIs(t, err, domain.ErrApplicationNotFound)
	})
}

func TestApplicationService_Stats(t *testing.T) {
	ctx := context.Background()
	repo := new(MockApplicationRepo)
	svc := service.NewApplicationService(repo, new(MockEmailService), false)

	repo.On("CountByStatus", ctx).Return(map[domain.ApplicationStatus]int64{
		domain.ApplicationStatusPending:  4,
		domain.ApplicationStatusApproved: 2,
	}, nil).Once()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Pending)
	assert.Equal(t, int64(2), stats.Approved)
	assert.Equal(t, int64(0), stats.Rejected)
	assert.Equal(t, int64(6), stats.Total)
}

func TestApplicationService_Export(t *testing.T) {
	ctx := context.Background()
	repo := new(MockApplicationRepo)
	svc := service.NewApplicationService(repo, new(MockEmailService), false)

	groups := "Task Force 141"
	submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.On("List", ctx, domain.ApplicationFilter{}).Return([]domain.Application{{
		ID:             1,
		Username:       "ghost",
		Discord:        "ghost#0001",
		Experience:     domain.ExperienceExpert,
		Role:           domain.RoleMedic,
		Availability:   []string{domain.AvailabilityWeekdays, domain.AvailabilityNights},
		PreviousGroups: &groups,
		Status:         domain.ApplicationStatusPending,
		SubmittedAt:    submitted,
	}}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Applications")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "username", rows[0][1])
	assert.Equal(t, "ghost", rows[1][1])
	assert.Equal(t, "weekdays, nights", rows[1][5])
	assert.Equal(t, "Task Force 141", rows[1][8])
	assert.Equal(t, "pending", rows[1][9])
	assert.Equal(t, "2026-03-01T12:00:00Z", rows[1][12])
}
