package storage

import (
	"context"
	"time"
)

// RefreshToken представляет выданный refresh token
type RefreshToken struct {
	ExpiresAt time.Time
	CreatedAt time.Time
	Token     string
	UserID    string
}

// TokenStorage defines interface for refresh token persistence
type TokenStorage interface {
	// SaveRefreshToken stores a refresh token
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves a refresh token
	// Returns ErrTokenNotFound if token doesn't exist
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)

	// DeleteRefreshToken removes a refresh token
	DeleteRefreshToken(ctx context.Context, token string) error

	// DeleteUserTokens removes all refresh tokens of a user
	DeleteUserTokens(ctx context.Context, userID string) error

	// DeleteExpiredTokens removes all expired refresh tokens
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}
