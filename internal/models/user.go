package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"userId"`

	// Email is the user's email address (unique). Used for login.
	Email string `json:"email"`

	// Username is the user's display name (unique). Also usable for login.
	Username string `json:"userName"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized to clients.
	PasswordHash string `json:"-"`

	// Avatar is an optional profile picture URL.
	Avatar string `json:"avatar"`

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64 `json:"-"`
}

// NewUser creates a user with a fresh ID and creation timestamp.
func NewUser(email, username, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}

// Ref returns the display identity stub for this user.
func (u *User) Ref() UserRef {
	return UserRef{UserID: u.ID, UserName: u.Username, Avatar: u.Avatar}
}

// UserRef is the identity stub embedded in list payloads
// (owner, contributers, modifiedBy).
type UserRef struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Avatar   string `json:"avatar"`
}
