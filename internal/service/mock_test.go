package service

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo is a map-backed in-memory UserRepository.
type fakeUserRepo struct {
	users  map[string]*model.User // by ID
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.DuplicateUser(user.Username)
		}
	}
	f.nextID++
	user.ID = "u" + strconv.Itoa(f.nextID)
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) UpsertGitHubUser(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.GitHubID != 0 && u.GitHubID == user.GitHubID {
			u.Username = user.Username
			*user = *u
			return nil
		}
	}
	return f.CreateUser(context.Background(), user)
}

// fakeSessionRepo is a map-backed in-memory SessionRepository.
type fakeSessionRepo struct {
	sessions map[string]*model.Session
	nextID   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.Session{}}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, session *model.Session) error {
	f.nextID++
	session.Token = "s" + strconv.Itoa(f.nextID)
	stored := *session
	f.sessions[session.Token] = &stored
	return nil
}

func (f *fakeSessionRepo) GetSessionByToken(_ context.Context, token string) (*model.Session, error) {
	if s, ok := f.sessions[token]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, apperror.NotFound("session", token)
}

func (f *fakeSessionRepo) DeleteSession(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

// mockQuoteRepo is a function-field QuoteRepository so each test scripts
// exactly the calls it cares about.
type mockQuoteRepo struct {
	createQuote      func(ctx context.Context, quote *model.Quote) error
	deleteOwnedQuote func(ctx context.Context, id, ownerID string) (bool, error)
	toggleLike       func(ctx context.Context, quoteID, userID string) (bool, error)
	toggleRepost     func(ctx context.Context, quoteID, userID string) (bool, error)
	addComment       func(ctx context.Context, comment *model.Comment) error
	globalFeed       func(ctx context.Context) ([]model.FeedQuote, error)
	feedByUser       func(ctx context.Context, userID string) ([]model.FeedQuote, error)
}

func (m *mockQuoteRepo) CreateQuote(ctx context.Context, quote *model.Quote) error {
	return m.createQuote(ctx, quote)
}

func (m *mockQuoteRepo) DeleteOwnedQuote(ctx context.Context, id, ownerID string) (bool, error) {
	return m.deleteOwnedQuote(ctx, id, ownerID)
}

func (m *mockQuoteRepo) ToggleLike(ctx context.Context, quoteID, userID string) (bool, error) {
	return m.toggleLike(ctx, quoteID, userID)
}

func (m *mockQuoteRepo) ToggleRepost(ctx context.Context, quoteID, userID string) (bool, error) {
	return m.toggleRepost(ctx, quoteID, userID)
}

func (m *mockQuoteRepo) AddComment(ctx context.Context, comment *model.Comment) error {
	return m.addComment(ctx, comment)
}

func (m *mockQuoteRepo) GlobalFeed(ctx context.Context) ([]model.FeedQuote, error) {
	return m.globalFeed(ctx)
}

func (m *mockQuoteRepo) FeedByUser(ctx context.Context, userID string) ([]model.FeedQuote, error) {
	return m.feedByUser(ctx, userID)
}
