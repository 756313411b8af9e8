package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Username is the unique handle shown to other users when splitting.
	Username string

	// Email is the user's email address (unique). Either it or the
	// username can be used to log in.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Budget is the monthly spending budget. Never negative; defaults to 0.
	Budget float64

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the account.
	UpdatedAt int64
}

// NewUser builds a user with a fresh ID and timestamps.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Ref returns the presentation reference for the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username}
}

// UserRef identifies a user for display purposes.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
