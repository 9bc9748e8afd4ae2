package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/auth"
	"github.com/sakif/quotefeed/internal/service"
)

// FeedHandler serves the two read-only pages: the global feed and the
// per-user profile.
type FeedHandler struct {
	quotes *service.QuoteService
	render *Renderer
	logger *slog.Logger
}

func NewFeedHandler(quotes *service.QuoteService, render *Renderer, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{quotes: quotes, render: render, logger: logger}
}

// HandleIndex renders the global feed: every original quote, newest
// first. GET /
func (h *FeedHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	feed, err := h.quotes.GlobalFeed(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	h.render.Render(w, "index", pageData{
		Title:       "Quote Feed",
		CurrentUser: user,
		Quotes:      feed,
	})
}

// HandleProfile renders a user's page: their quotes and reposts.
// GET /user/{username}
//
// An unknown username is a plain-text 404, not a styled page — this is
// the one route where "not found" is surfaced rather than redirected.
func (h *FeedHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	profileUser, feed, err := h.quotes.ProfileFeed(r.Context(), username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	h.render.Render(w, "profile", pageData{
		Title:       profileUser.Username,
		CurrentUser: user,
		ProfileUser: profileUser,
		Quotes:      feed,
	})
}
