package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/repository"
)

const applicationColumns = `id, username, discord, experience, role, availability, motivation,
	why_accept_you, previous_groups, status, reviewed_by, reviewed_at, submitted_at`

type applicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) repository.ApplicationRepository {
	return &applicationRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	var (
		a              domain.Application
		availability   string
		previousGroups sql.NullString
		reviewedBy     sql.NullString
		reviewedAt     sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Username, &a.Discord, &a.Experience, &a.Role, &availability, &a.Motivation,
		&a.WhyAcceptYou, &previousGroups, &a.Status, &reviewedBy, &reviewedAt, &a.SubmittedAt)
	if err != nil {
		return nil, err
	}

	a.Availability, err = decodeAvailability(availability)
	if err != nil {
		return nil, fmt.Errorf("application %d: %w", a.ID, err)
	}
	if previousGroups.Valid {
		a.PreviousGroups = &previousGroups.String
	}
	if reviewedBy.Valid {
		a.ReviewedBy = &reviewedBy.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		a.ReviewedAt = &t
	}
	return &a, nil
}

func encodeAvailability(days []string) (string, error) {
	if days == nil {
		days = []string{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", fmt.Errorf("encode availability: %w", err)
	}
	return string(b), nil
}

func decodeAvailability(raw string) ([]string, error) {
	days := []string{}
	if raw == "" {
		return days, nil
	}
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}
	return days, nil
}

func (r *applicationRepository) Create(ctx context.Context, a *domain.Application) error {
	availability, err := encodeAvailability(a.Availability)
	if err != nil {
		return err
	}

	a.Status = domain.ApplicationStatusPending
	a.ReviewedBy = nil
	a.ReviewedAt = nil
	a.SubmittedAt = time.Now().UTC()

	query := `INSERT INTO applications (username, discord, experience, role, availability, motivation,
	          why_accept_you, previous_groups, status, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	logger.DatabaseCall(ctx, "INSERT", "applications", "username", a.Username)

	err = r.db.QueryRowContext(ctx, query, a.Username, a.Discord, a.Experience, a.Role, availability,
		a.Motivation, a.WhyAcceptYou, a.PreviousGroups, a.Status, a.SubmittedAt).Scan(&a.ID)
	logger.DatabaseResult(ctx, "INSERT", 1, err, "applicationID", a.ID)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id int32) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	logger.DatabaseCall(ctx, "SELECT", "applications", "applicationID", id)

	a, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		logger.DatabaseResult(ctx, "SELECT", 0, err, "applicationID", id)
		return nil, fmt.Errorf("get application %d: %w", id, err)
	}
	return a, nil
}

func (r *applicationRepository) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY submitted_at ASC, id ASC`
	logger.DatabaseCall(ctx, "SELECT", "applications", "status", filter.Status)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult(ctx, "SELECT", 0, err)
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := make([]domain.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	logger.DatabaseResult(ctx, "SELECT", int64(len(apps)), nil)
	return apps, nil
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id int32, status domain.ApplicationStatus, reviewedBy string, onlyPending bool) (*domain.Application, error) {
	query := `UPDATE applications SET status = $1, reviewed_by = $2, reviewed_at = $3 WHERE id = $4`
	if onlyPending {
		query += ` AND status = 'pending'`
	}
	query += ` RETURNING ` + applicationColumns
	logger.DatabaseCall(ctx, "UPDATE", "applications", "applicationID", id, "status", status)

	a, err := scanApplication(r.db.QueryRowContext(ctx, query, status, reviewedBy, time.Now().UTC(), id))
	if errors.Is(err, sql.ErrNoRows) {
		if !onlyPending {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, r.missedUpdateReason(ctx, id)
	}
	logger.DatabaseResult(ctx, "UPDATE", 1, err, "applicationID", id)
	if err != nil {
		return nil, fmt.Errorf("update application %d status: %w", id, err)
	}
	return a, nil
}

// missedUpdateReason tells a missing row apart from one that is no longer pending.
func (r *applicationRepository) missedUpdateReason(ctx context.Context, id int32) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check application %d: %w", id, err)
	}
	if exists {
		return domain.ErrAlreadyReviewed
	}
	return domain.ErrApplicationNotFound
}

func (r *applicationRepository) CountByStatus(ctx context.Context) (map[domain.ApplicationStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM applications GROUP BY status`
	logger.DatabaseCall(ctx, "SELECT", "applications", "aggregate", "count_by_status")

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ApplicationStatus]int64, len(domain.ApplicationStatuses))
	for rows.Next() {
		var (
			status domain.ApplicationStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
