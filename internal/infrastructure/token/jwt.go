package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/femmie/marketplace/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	typeAccess  = "access"
	typeRefresh = "refresh"
)

var (
	errTokenType = errors.New("token type mismatch")
	errNoSubject = errors.New("token has no subject")
)

// Claims binds a token to a user: sub carries the email, uid the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
}

// Manager issues and validates HS256 access and refresh tokens. It satisfies
// ports.TokenService.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the time source used when signing tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager returns a Manager. Non-positive TTLs fall back to 15 minutes for
// access tokens and 7 days for refresh tokens.
func NewManager(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) *Manager {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	m := &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue signs a new access/refresh pair for user.
func (m *Manager) Issue(user *domain.User) (domain.TokenPair, error) {
	access, err := m.sign(user, typeAccess, m.accessTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := m.sign(user, typeRefresh, m.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ExtractRefreshIdentity decodes a refresh token and returns its subject.
// Only the signature and token type are checked here.
func (m *Manager) ExtractRefreshIdentity(tokenString string) (string, error) {
	claims, err := m.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	if claims.TokenType != typeRefresh {
		return "", fmt.Errorf("%w: %s", errTokenType, claims.TokenType)
	}
	if claims.Subject == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

// IsValidRefresh reports whether tokenString is a signed, unexpired refresh
// token bound to user.
func (m *Manager) IsValidRefresh(tokenString string, user *domain.User) bool {
	if user == nil {
		return false
	}
	claims, err := m.parse(tokenString)
	if err != nil {
		return false
	}
	return claims.TokenType == typeRefresh &&
		claims.Subject == user.Email &&
		claims.UserID == user.ID
}

// VerifyAccess validates an access token and returns the identity it proves.
func (m *Manager) VerifyAccess(tokenString string) (domain.Identity, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return domain.Identity{}, err
	}
	if claims.TokenType != typeAccess {
		return domain.Identity{}, fmt.Errorf("%w: %s", errTokenType, claims.TokenType)
	}
	if claims.Subject == "" {
		return domain.Identity{}, errNoSubject
	}
	return domain.Identity{
		UserID: claims.UserID,
		Email:  claims.Subject,
		Role:   domain.Role(claims.Role),
	}, nil
}

func (m *Manager) sign(user *domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    user.ID,
		Role:      string(user.Role),
		TokenType: tokenType,
	})
	return t.SignedString(m.secret)
}

func (m *Manager) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !tkn.Valid {
		return nil, errors.New("token is invalid")
	}
	return claims, nil
}
