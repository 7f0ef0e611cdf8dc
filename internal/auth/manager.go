package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/videotube/backend/internal/models"
)

var (
	// ErrUserNotFound indicates the token's user no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenMismatch indicates a refresh token that verified correctly but
	// is not the one currently stored for the user. A previously rotated
	// token falls in this category.
	ErrTokenMismatch = errors.New("refresh token is expired or already used")
)

// TokenPair groups the credentials issued to an authenticated user.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserStore is the persistence surface the Manager needs: loading users and
// overwriting the single stored refresh token.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
}

// Manager issues and rotates token pairs, keeping exactly one valid refresh
// token per user in the store.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store UserStore
}

// NewManager constructs a Manager. The access and refresh secrets must be
// distinct so a refresh token can never pass as an access token.
func NewManager(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration, store UserStore) *Manager {
	if store == nil {
		panic("auth: user store must not be nil")
	}
	return &Manager{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
	}
}

// Issue mints a new access/refresh pair for the user and persists the
// refresh token, invalidating any previously issued one.
func (m *Manager) Issue(ctx context.Context, userID string) (TokenPair, error) {
	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return TokenPair{}, ErrUserNotFound
	}

	accessToken, err := SignAccessToken(m.accessSecret, m.accessTTL, user.ID, user.Username)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := SignRefreshToken(m.refreshSecret, m.refreshTTL, user.ID)
	if err != nil {
		return TokenPair{}, err
	}

	if err := m.store.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a refresh token for a new pair. The incoming token must
// verify against the refresh secret and match the token currently stored
// for the user; the equality check is what makes rotation meaningful.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, ErrInvalidToken
	}

	userID, err := VerifyRefreshToken(m.refreshSecret, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		return TokenPair{}, ErrUserNotFound
	}

	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return TokenPair{}, ErrTokenMismatch
	}

	return m.Issue(ctx, user.ID)
}

// Revoke clears the stored refresh token for the user. Access tokens already
// in the wild stay valid until their own expiry.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// VerifyAccess validates an access token against the manager's secret.
func (m *Manager) VerifyAccess(tokenString string) (AccessClaims, error) {
	return VerifyAccessToken(m.accessSecret, tokenString)
}
