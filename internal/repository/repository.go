package repository

import (
	"context"

	"facingcourage-backend/internal/domain"
)

type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id int32) (*domain.Application, error)
	List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error)
	// UpdateStatus sets status, reviewer and review time in a single statement.
	// When onlyPending is set the update only applies to pending rows.
	UpdateStatus(ctx context.Context, id int32, status domain.ApplicationStatus, reviewedBy string, onlyPending bool) (*domain.Application, error)
	CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int64, error)
}

type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	DeleteAll(ctx context.Context) (int64, error)
}
