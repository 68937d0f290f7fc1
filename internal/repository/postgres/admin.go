package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type adminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) repository.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, a *domain.Admin) error {
	query := `INSERT INTO admins (username, password, created_at) VALUES ($1, $2, $3) RETURNING id`
	a.CreatedAt = time.Now().UTC()
	logger.DatabaseCall(ctx, "INSERT", "admins", "username", a.Username)

	err := r.db.QueryRowContext(ctx, query, a.Username, a.PasswordHash, a.CreatedAt).Scan(&a.ID)
	logger.DatabaseResult(ctx, "INSERT", 1, err, "adminID", a.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAdminExists
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	a := &domain.Admin{}
	query := `SELECT id, username, password, created_at FROM admins WHERE username = $1`
	logger.DatabaseCall(ctx, "SELECT", "admins", "username", username)

	err := r.db.QueryRowContext(ctx, query, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return a, nil
}

func (r *adminRepository) DeleteAll(ctx context.Context) (int64, error) {
	logger.DatabaseCall(ctx, "DELETE", "admins")
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins`)
	if err != nil {
		logger.DatabaseResult(ctx, "DELETE", 0, err)
		return 0, fmt.Errorf("delete admins: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete admins: %w", err)
	}
	logger.DatabaseResult(ctx, "DELETE", n, nil)
	return n, nil
}
