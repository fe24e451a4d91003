// Package auth handles registration, login, and token lifecycle. The rest of
// the application consumes it as a single capability: turn a request token
// into an authenticated user id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/model"
	"github.com/mtobin/pennywise/internal/service"
)

// Service issues and validates access tokens.
type Service struct {
	store    service.Storage
	secret   []byte
	tokenTTL time.Duration
}

// New creates an auth service. The secret signs HS256 tokens; tokenTTL bounds
// their lifetime.
func New(store service.Storage, secret []byte, tokenTTL time.Duration) (*Service, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: token secret", common.ErrMissingConfig)
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{store: store, secret: secret, tokenTTL: tokenTTL}, nil
}

// Register creates a new user with a bcrypt-hashed password and a zero
// budget. Duplicate usernames or emails surface as common.ErrDuplicateEntry.
func (s *Service) Register(ctx context.Context, username, email, password, currency string) (*model.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: username and email are required", common.ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", common.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Currency:     currency,
	})
	if err != nil {
		return nil, err
	}

	common.LogInfo("registered user", common.Fields{"user_id": user.ID, "username": username})
	return user, nil
}

// Login verifies credentials and issues a signed token. Bad username and bad
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return "", nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, common.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, user, nil
}

// Authenticate validates a token and returns the user id it was issued for.
// Revoked tokens fail with common.ErrTokenRevoked.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (int64, error) {
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return 0, err
	}

	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return 0, err
	}
	if revoked {
		return 0, common.ErrTokenRevoked
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("%w: malformed subject", common.ErrUnauthorized)
	}

	return userID, nil
}

// Logout revokes the token for the remainder of its lifetime. Expired
// revocation rows are purged opportunistically.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return err
	}

	expiresAt := time.Now().UTC().Add(s.tokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := s.store.RevokeToken(ctx, claims.ID, expiresAt); err != nil {
		return err
	}

	// Best effort; stale rows only cost space
	_ = s.store.PurgeExpiredTokens(ctx, time.Now().UTC())

	return nil
}

func (s *Service) parseClaims(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", common.ErrUnauthorized)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: token has no id", common.ErrUnauthorized)
	}
	return claims, nil
}
