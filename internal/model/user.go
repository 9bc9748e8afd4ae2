// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt hash for accounts registered with a
// username/password form. Accounts created through GitHub OAuth have an
// empty hash and a non-zero GitHubID instead — they can never log in with
// a password because bcrypt comparison against an empty hash always fails.
//
// The hash is tagged `json:"-"` so it can never leak through an encoder,
// no matter what a handler serialises.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"` // 0 for local accounts
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
