package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/model"
)

func TestPost(t *testing.T) {
	var created *model.Quote
	quotes := &mockQuoteRepo{
		createQuote: func(_ context.Context, quote *model.Quote) error {
			quote.ID = "q1"
			created = quote
			return nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	quote, err := svc.Post(context.Background(), "u1", "  To be or not to be  ", " Shakespeare ")
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if created == nil {
		t.Fatal("Post() never reached the repository")
	}
	if quote.Text != "To be or not to be" {
		t.Errorf("Text = %q, want trimmed", quote.Text)
	}
	if quote.AuthorName != "Shakespeare" {
		t.Errorf("AuthorName = %q, want trimmed", quote.AuthorName)
	}
	if quote.IsRepost || quote.OriginalQuoteID != "" {
		t.Error("Post() produced a repost-shaped quote")
	}
}

func TestPost_Validation(t *testing.T) {
	quotes := &mockQuoteRepo{
		createQuote: func(_ context.Context, _ *model.Quote) error {
			t.Fatal("CreateQuote called for invalid input")
			return nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	tests := []struct {
		name   string
		text   string
		author string
	}{
		{"empty text", "", ""},
		{"whitespace text", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Post(context.Background(), "u1", tt.text, tt.author)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Post() error = %v, want ErrValidation", err)
			}
		})
	}
}

// "Text required" is the only input rule: arbitrarily long quotes and
// author names go through untouched.
func TestPost_NoLengthCap(t *testing.T) {
	quotes := &mockQuoteRepo{
		createQuote: func(_ context.Context, quote *model.Quote) error {
			quote.ID = "q1"
			return nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	longText := strings.Repeat("a", 5000)
	longAuthor := strings.Repeat("b", 500)
	quote, err := svc.Post(context.Background(), "u1", longText, longAuthor)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if quote.Text != longText || quote.AuthorName != longAuthor {
		t.Error("Post() altered long input")
	}
}

func TestToggleLike_PassesThrough(t *testing.T) {
	quotes := &mockQuoteRepo{
		toggleLike: func(_ context.Context, quoteID, userID string) (bool, error) {
			if quoteID != "q1" || userID != "u1" {
				t.Errorf("ToggleLike called with (%q, %q)", quoteID, userID)
			}
			return true, nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	liked, err := svc.ToggleLike(context.Background(), "u1", "q1")
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if !liked {
		t.Error("ToggleLike() = false, want true")
	}
}

// A consistency fault on the repost toggle is retried exactly once.
func TestToggleRepost_RetriesConsistencyFault(t *testing.T) {
	calls := 0
	quotes := &mockQuoteRepo{
		toggleRepost: func(_ context.Context, _, _ string) (bool, error) {
			calls++
			if calls == 1 {
				return false, apperror.Consistency("halves diverged")
			}
			return true, nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	reposted, err := svc.ToggleRepost(context.Background(), "u1", "q1")
	if err != nil {
		t.Fatalf("ToggleRepost() error = %v", err)
	}
	if !reposted {
		t.Error("ToggleRepost() = false, want true after retry")
	}
	if calls != 2 {
		t.Errorf("repository called %d times, want 2", calls)
	}
}

func TestToggleRepost_PersistentFaultSurfaces(t *testing.T) {
	calls := 0
	quotes := &mockQuoteRepo{
		toggleRepost: func(_ context.Context, _, _ string) (bool, error) {
			calls++
			return false, apperror.Consistency("halves diverged")
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	_, err := svc.ToggleRepost(context.Background(), "u1", "q1")
	if !errors.Is(err, apperror.ErrConsistency) {
		t.Fatalf("ToggleRepost() error = %v, want ErrConsistency", err)
	}
	if calls != 2 {
		t.Errorf("repository called %d times, want exactly 2 (one retry)", calls)
	}
}

func TestToggleRepost_NotFoundIsNotRetried(t *testing.T) {
	calls := 0
	quotes := &mockQuoteRepo{
		toggleRepost: func(_ context.Context, quoteID, _ string) (bool, error) {
			calls++
			return false, apperror.NotFound("quote", quoteID)
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	_, err := svc.ToggleRepost(context.Background(), "u1", "q1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ToggleRepost() error = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("repository called %d times, want 1", calls)
	}
}

func TestAddComment(t *testing.T) {
	quotes := &mockQuoteRepo{
		addComment: func(_ context.Context, comment *model.Comment) error {
			comment.ID = "c1"
			return nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	comment, err := svc.AddComment(context.Background(), "u1", "q1", " nice one ")
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if comment.Text != " nice one " {
		t.Errorf("Text = %q, want the input stored as given", comment.Text)
	}
	if comment.QuoteID != "q1" || comment.UserID != "u1" {
		t.Errorf("comment = %+v", comment)
	}
}

// Comments carry no validation at all: empty and very long text both
// pass straight through.
func TestAddComment_NoValidation(t *testing.T) {
	var stored []string
	quotes := &mockQuoteRepo{
		addComment: func(_ context.Context, comment *model.Comment) error {
			stored = append(stored, comment.Text)
			return nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	for _, text := range []string{"", strings.Repeat("a", 5000)} {
		if _, err := svc.AddComment(context.Background(), "u1", "q1", text); err != nil {
			t.Errorf("AddComment(%d chars) error = %v", len(text), err)
		}
	}
	if len(stored) != 2 {
		t.Errorf("stored %d comments, want 2", len(stored))
	}
}

// Delete never distinguishes "not yours" from "not there" — both are a
// silent nil.
func TestDelete_SilentNoOp(t *testing.T) {
	quotes := &mockQuoteRepo{
		deleteOwnedQuote: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	if err := svc.Delete(context.Background(), "u1", "q1"); err != nil {
		t.Errorf("Delete() error = %v, want nil no-op", err)
	}
}

func TestDelete(t *testing.T) {
	var gotID, gotOwner string
	quotes := &mockQuoteRepo{
		deleteOwnedQuote: func(_ context.Context, id, ownerID string) (bool, error) {
			gotID, gotOwner = id, ownerID
			return true, nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	if err := svc.Delete(context.Background(), "u1", "q1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if gotID != "q1" || gotOwner != "u1" {
		t.Errorf("DeleteOwnedQuote called with (%q, %q)", gotID, gotOwner)
	}
}

func TestProfileFeed_UnknownUser(t *testing.T) {
	quotes := &mockQuoteRepo{
		feedByUser: func(_ context.Context, _ string) ([]model.FeedQuote, error) {
			t.Fatal("FeedByUser called for an unknown user")
			return nil, nil
		},
	}
	svc := NewQuoteService(quotes, newFakeUserRepo(), discardLogger())

	_, _, err := svc.ProfileFeed(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ProfileFeed() error = %v, want ErrNotFound", err)
	}
}

func TestProfileFeed(t *testing.T) {
	users := newFakeUserRepo()
	alice := &model.User{Username: "alice"}
	if err := users.CreateUser(context.Background(), alice); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	quotes := &mockQuoteRepo{
		feedByUser: func(_ context.Context, userID string) ([]model.FeedQuote, error) {
			if userID != alice.ID {
				t.Errorf("FeedByUser called with %q, want %q", userID, alice.ID)
			}
			return []model.FeedQuote{{Quote: model.Quote{ID: "q1"}}}, nil
		},
	}
	svc := NewQuoteService(quotes, users, discardLogger())

	user, feed, err := svc.ProfileFeed(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ProfileFeed() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("user = %+v", user)
	}
	if len(feed) != 1 || feed[0].ID != "q1" {
		t.Errorf("feed = %+v", feed)
	}
}
