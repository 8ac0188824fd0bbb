package storage

import (
	"context"
	"time"
)

// User представляет пользователя на сервере
type User struct {
	CreatedAt    time.Time
	ID           string // UUID
	Username     string
	PasswordHash string // argon2id в PHC формате
}

// UserStorage defines interface for user persistence
type UserStorage interface {
	// CreateUser stores a new user
	// Returns ErrUserExists if username is taken
	CreateUser(ctx context.Context, user *User) error

	// GetUserByUsername retrieves a user by username
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByID retrieves a user by id
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, id string) (*User, error)
}
