package model

import "time"

// Session is one server-side login session. Token is the opaque session
// ID kept (signed) in the browser cookie; everything else stays on the
// server. Identity is always resolved by looking the session up and then
// loading the user row fresh — the cookie never embeds the user record.
type Session struct {
	Token     string    `json:"-" db:"token"`
	UserID    string    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
	ExpiresAt time.Time `json:"-" db:"expires_at"`
}

// Expired reports whether the session is past its expiry at time now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
