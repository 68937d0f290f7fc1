package service

import (
	"context"
	"errors"
	"fmt"

	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/logger"
	"facingcourage-backend/internal/metrics"
	"facingcourage-backend/internal/repository"
	"facingcourage-backend/internal/security"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

type authService struct {
	adminRepo    repository.AdminRepository
	hasher       *security.PasswordHasher
	tokenManager security.TokenManager
}

func NewAuthService(adminRepo repository.AdminRepository, hasher *security.PasswordHasher, tokenManager security.TokenManager) AuthService {
	return &authService{
		adminRepo:    adminRepo,
		hasher:       hasher,
		tokenManager: tokenManager,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrAdminNotFound) {
		s.hasher.VerifyDummy(password)
		metrics.RecordLogin("invalid")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if err := s.hasher.Verify(admin.PasswordHash, password); err != nil {
		metrics.RecordLogin("invalid")
		logger.WarnContext(ctx, "Admin login rejected", "username", username)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokenManager.GenerateAdminToken(admin.ID, admin.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	metrics.RecordLogin("success")
	logger.InfoContext(ctx, "Admin logged in", "adminID", admin.ID)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

func (s *authService) ProvisionAdmin(ctx context.Context, username, password string) (*domain.Admin, error) {
	if username == "" {
		return nil, errors.New("username is required")
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &domain.Admin{Username: username, PasswordHash: hash}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *authService) ResetAdmins(ctx context.Context) (int64, error) {
	return s.adminRepo.DeleteAll(ctx)
}
