package models

import "time"

// Session is a server-side login session. The cookie token handed to the
// client references this record; deleting the record revokes the token
// even before its expiry.
type Session struct {
	// ID is the unique identifier for the session (UUID format).
	ID string

	// UserID is the authenticated identity the session is bound to.
	UserID string

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	// ExpiresAt is a fixed duration after creation; the session is
	// invalid past this instant even if the record still exists.
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
