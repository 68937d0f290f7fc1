package service

import (
	"context"
	"io"
	"time"

	"facingcourage-backend/internal/domain"
)

// ReviewChannel records which route changed an application's status.
type ReviewChannel string

const (
	ReviewChannelAdmin  ReviewChannel = "admin"
	ReviewChannelLegacy ReviewChannel = "legacy"
)

type ApplicationService interface {
	Submit(ctx context.Context, app *domain.Application) (*domain.Application, error)
	Get(ctx context.Context, id int32) (*domain.Application, error)
	List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error)
	Review(ctx context.Context, id int32, status domain.ApplicationStatus, reviewer string, channel ReviewChannel) (*domain.Application, error)
	Stats(ctx context.Context) (*domain.ApplicationStats, error)
	Export(ctx context.Context, w io.Writer) error
}

// LoginResult is returned on a successful admin login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     *domain.Admin
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ProvisionAdmin(ctx context.Context, username, password string) (*domain.Admin, error)
	ResetAdmins(ctx context.Context) (int64, error)
}

type EmailService interface {
	SendNewApplicationNotice(ctx context.Context, app *domain.Application) error
	SendPendingDigest(ctx context.Context, pending []domain.Application) error
}
