package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const (
	DefaultTokenTTL = 24 * time.Hour
	DefaultIssuer   = "facingcourage-admin"
)

// AdminClaims is the payload of an admin session token.
type AdminClaims struct {
	AdminID  int32  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateAdminToken(adminID int32, username string) (string, time.Time, error)
	ValidateToken(tokenString string) (*AdminClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption customises a TokenManager.
type TokenOption func(*tokenManager)

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(m *tokenManager) { m.issuer = issuer }
}

// WithClock replaces time.Now, used by tests to mint already-expired tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(m *tokenManager) { m.now = now }
}

func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &tokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *tokenManager) GenerateAdminToken(adminID int32, username string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := AdminClaims{
		AdminID:  adminID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(adminID)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *tokenManager) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	if claims.AdminID == 0 && claims.Subject != "" {
		id, _ := strconv.Atoi(claims.Subject)
		claims.AdminID = int32(id)
	}
	return claims, nil
}
