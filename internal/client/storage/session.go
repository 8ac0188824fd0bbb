package storage

import (
	"context"
	"time"
)

// Session представляет сохраненную сессию пользователя на клиенте
type Session struct {
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ServerURL    string    `json:"server_url"`
}

// IsExpired проверяет, истек ли access token
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionStorage defines interface for storing the client session
type SessionStorage interface {
	// SaveSession stores session data
	SaveSession(ctx context.Context, session *Session) error

	// GetSession retrieves session data
	// Returns ErrSessionNotFound if no session exists
	GetSession(ctx context.Context) (*Session, error)

	// DeleteSession removes session data (logout)
	DeleteSession(ctx context.Context) error
}
