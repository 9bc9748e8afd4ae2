package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/model"
	"github.com/sakif/quotefeed/internal/repository"
)

// QuoteService handles posting, the like/repost toggles, comments,
// deletion, and feed assembly.
type QuoteService struct {
	quotes repository.QuoteRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewQuoteService(quotes repository.QuoteRepository, users repository.UserRepository, logger *slog.Logger) *QuoteService {
	return &QuoteService{
		quotes: quotes,
		users:  users,
		logger: logger,
	}
}

// Post creates a new non-repost quote owned by userID. Text is required —
// the one input rule on this path; there is no length cap. The author
// display name is free text and may be empty — it names the person being
// quoted, who need not be a registered user.
func (s *QuoteService) Post(ctx context.Context, userID, text, authorName string) (*model.Quote, error) {
	text = strings.TrimSpace(text)
	authorName = strings.TrimSpace(authorName)

	if text == "" {
		return nil, apperror.ValidationFailed("text", "quote text is required")
	}

	quote := &model.Quote{
		Text:       text,
		AuthorName: authorName,
		PostedBy:   userID,
	}
	if err := s.quotes.CreateQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("posting quote: %w", err)
	}

	s.logger.Info("quote posted",
		slog.String("quoteID", quote.ID),
		slog.String("userID", userID),
	)
	return quote, nil
}

// ToggleLike flips the (user, quote) like state and returns the new one.
func (s *QuoteService) ToggleLike(ctx context.Context, userID, quoteID string) (bool, error) {
	liked, err := s.quotes.ToggleLike(ctx, quoteID, userID)
	if err != nil {
		return false, err
	}

	s.logger.Info("like toggled",
		slog.String("quoteID", quoteID),
		slog.String("userID", userID),
		slog.Bool("liked", liked),
	)
	return liked, nil
}

// ToggleRepost flips the (user, original) repost state: membership in the
// original's reposters set and the existence of the user's repost-copy
// change together or not at all.
//
// A consistency fault is the one error this layer never passes through
// quietly: it is logged at error level, compensated with a single retry
// (the failed attempt rolled back, so a clean retry is safe and
// idempotent), and only then surfaced.
func (s *QuoteService) ToggleRepost(ctx context.Context, userID, quoteID string) (bool, error) {
	reposted, err := s.quotes.ToggleRepost(ctx, quoteID, userID)
	if err != nil && errors.Is(err, apperror.ErrConsistency) {
		s.logger.Error("repost toggle consistency fault, retrying",
			slog.String("quoteID", quoteID),
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		reposted, err = s.quotes.ToggleRepost(ctx, quoteID, userID)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrConsistency) {
			s.logger.Error("repost toggle consistency fault persisted",
				slog.String("quoteID", quoteID),
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return false, err
	}

	s.logger.Info("repost toggled",
		slog.String("quoteID", quoteID),
		slog.String("userID", userID),
		slog.Bool("reposted", reposted),
	)
	return reposted, nil
}

// AddComment appends a comment to the quote's comment sequence. The text
// is stored as given — comments carry no validation; the form's required
// attribute is the only guard against empty ones.
func (s *QuoteService) AddComment(ctx context.Context, userID, quoteID, text string) (*model.Comment, error) {
	comment := &model.Comment{
		QuoteID: quoteID,
		UserID:  userID,
		Text:    text,
	}
	if err := s.quotes.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment added",
		slog.String("quoteID", quoteID),
		slog.String("userID", userID),
	)
	return comment, nil
}

// Delete removes the quote if — and only if — userID owns it. A missing
// quote and someone else's quote are both silent no-ops: the caller gets
// nil either way, so the outcome leaks nothing about what exists.
//
// Deleting an original does NOT remove dependent repost-copies or pull
// anyone from reposters sets; see the README on this asymmetry.
func (s *QuoteService) Delete(ctx context.Context, userID, quoteID string) error {
	deleted, err := s.quotes.DeleteOwnedQuote(ctx, quoteID, userID)
	if err != nil {
		return fmt.Errorf("deleting quote: %w", err)
	}

	if deleted {
		s.logger.Info("quote deleted",
			slog.String("quoteID", quoteID),
			slog.String("userID", userID),
		)
	} else {
		// Missing or not the owner — indistinguishable on purpose.
		s.logger.Info("quote delete no-op",
			slog.String("quoteID", quoteID),
			slog.String("userID", userID),
		)
	}
	return nil
}

// GlobalFeed returns all original (non-repost) quotes, newest first, with
// posters, engagement sets, and comments resolved.
func (s *QuoteService) GlobalFeed(ctx context.Context) ([]model.FeedQuote, error) {
	feed, err := s.quotes.GlobalFeed(ctx)
	if err != nil {
		s.logger.Error("failed to load feed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("loading feed: %w", err)
	}
	return feed, nil
}

// ProfileFeed returns the named user and all their quotes, reposts
// included. ErrNotFound if no such user — the handler turns that into a
// plain 404.
func (s *QuoteService) ProfileFeed(ctx context.Context, username string) (*model.User, []model.FeedQuote, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, err
	}

	feed, err := s.quotes.FeedByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to load profile feed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, nil, fmt.Errorf("loading profile feed: %w", err)
	}
	return user, feed, nil
}
