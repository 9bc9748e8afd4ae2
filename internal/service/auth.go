// Package service contains the business logic layer: validation,
// authorization rules, and orchestration between the HTTP handlers above
// it and the repositories below it. Nothing in this package knows about
// HTTP, and nothing in it speaks SQL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/auth"
	"github.com/sakif/quotefeed/internal/model"
	"github.com/sakif/quotefeed/internal/repository"
)

const (
	MaxUsernameLength = 30
	// DefaultSessionTTL is how long a login lasts unless configured
	// otherwise. Expiry is checked at lookup, not by a background job.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// AuthService owns registration, credential verification, and the
// session lifecycle.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	passwords  *auth.PasswordService
	sessionTTL time.Duration
	logger     *slog.Logger
}

// compile-time check: AuthService is the auth middleware's UserResolver.
var _ auth.UserResolver = (*AuthService)(nil)

// NewAuthService creates an AuthService. A sessionTTL of 0 selects
// DefaultSessionTTL.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	passwords *auth.PasswordService,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		passwords:  passwords,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// SessionTTL is the configured session lifetime; the cookie layer uses it
// for Max-Age so cookie and session row expire together.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates a new account. The password is hashed exactly once,
// here. A taken username fails with ErrConflict — both via this explicit
// check and, if two registrations race past it, via the UNIQUE constraint
// underneath.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, apperror.DuplicateUser(username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username %q: %w", username, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies a username/password pair and returns the user.
//
// The two failure modes stay distinct internally (ErrNotFound vs
// ErrBadCredential) for logs and tests, but handlers must render them
// identically — the login page never reveals whether the username exists.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	// OAuth-only accounts have no hash; Verify fails on the empty string,
	// which is exactly the behaviour we want.
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.BadCredential()
	}

	return user, nil
}

// LoginGitHub completes an OAuth login: first login creates the account,
// later logins reuse it (keyed on the stable GitHub ID).
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		Username: ghUser.Login,
		GitHubID: ghUser.ID,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting GitHub user %d: %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// StartSession opens a server-side session for the user and returns it.
// The caller signs session.Token into the cookie.
func (s *AuthService) StartSession(ctx context.Context, userID string) (*model.Session, error) {
	session := &model.Session{
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service/auth: starting session for %s: %w", userID, err)
	}
	return session, nil
}

// Logout destroys the session synchronously. Once this returns, the
// token resolves to anonymous — even if the browser keeps the cookie.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	if err := s.sessions.DeleteSession(ctx, sessionToken); err != nil {
		return fmt.Errorf("service/auth: logging out: %w", err)
	}
	return nil
}

// ResolveSession maps an opaque session token to a live user record: the
// session row first, then a fresh user lookup, so credential or account
// changes take effect immediately. Expired sessions and deleted users
// both come back as ErrNotFound — callers treat any error as anonymous.
func (s *AuthService) ResolveSession(ctx context.Context, sessionToken string) (*model.User, error) {
	session, err := s.sessions.GetSessionByToken(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
