package repository

import (
	"context"

	"github.com/sakif/quotefeed/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict if the
	// username is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHubUser inserts or updates a user keyed on GitHubID, for the
	// OAuth login path.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// GetSessionByToken returns apperror.ErrNotFound for unknown and expired
	// tokens alike; expired rows are deleted on the way out.
	GetSessionByToken(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type QuoteRepository interface {
	CreateQuote(ctx context.Context, quote *model.Quote) error

	// DeleteOwnedQuote removes the quote only if ownerID posted it. Returns
	// false (and no error) when the quote is missing or owned by someone
	// else — callers treat that as a silent no-op.
	DeleteOwnedQuote(ctx context.Context, id, ownerID string) (bool, error)

	// ToggleLike atomically flips userID's membership in the quote's
	// likers set. Returns the new state: true if the user now likes the
	// quote. apperror.ErrNotFound if the quote doesn't exist.
	ToggleLike(ctx context.Context, quoteID, userID string) (bool, error)

	// ToggleRepost atomically flips userID's membership in the quote's
	// reposters set AND creates or deletes the matching repost-copy
	// quote, all in one transaction. Returns true if the user now
	// reposts the quote. apperror.ErrNotFound if the original doesn't
	// exist, apperror.ErrConsistency if the set and the copy diverged.
	ToggleRepost(ctx context.Context, quoteID, userID string) (bool, error)

	AddComment(ctx context.Context, comment *model.Comment) error

	// GlobalFeed returns all non-repost quotes, newest first, with
	// posters, liker/reposter sets, and comments resolved.
	GlobalFeed(ctx context.Context) ([]model.FeedQuote, error)
	// FeedByUser returns all quotes posted by the user, reposts
	// included, newest first, with originals resolved on repost rows.
	FeedByUser(ctx context.Context, userID string) ([]model.FeedQuote, error)
}
