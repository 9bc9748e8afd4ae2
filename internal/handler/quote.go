package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/auth"
	"github.com/sakif/quotefeed/internal/service"
)

// QuoteHandler owns the state-changing interaction endpoints. All of
// them sit behind auth.RequireUser, so UserFromContext always resolves
// here, and all of them answer with a redirect — a toggle that flipped
// state, a no-op on a vanished quote, and a refused delete are
// indistinguishable to the browser.
type QuoteHandler struct {
	quotes *service.QuoteService
	logger *slog.Logger
}

func NewQuoteHandler(quotes *service.QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, logger: logger}
}

// HandlePost creates a quote. POST /post-quote
func (h *QuoteHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	_, err := h.quotes.Post(r.Context(), user.ID, r.FormValue("text"), r.FormValue("authorName"))
	if err != nil && !errors.Is(err, apperror.ErrValidation) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err != nil {
		h.logger.Warn("quote rejected", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLike toggles a like. POST /like/{id}
func (h *QuoteHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if _, err := h.quotes.ToggleLike(r.Context(), user.ID, r.PathValue("id")); h.failed(w, err) {
		return
	}
	redirectBack(w, r)
}

// HandleRepost toggles a repost. POST /repost/{id}
func (h *QuoteHandler) HandleRepost(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if _, err := h.quotes.ToggleRepost(r.Context(), user.ID, r.PathValue("id")); h.failed(w, err) {
		return
	}
	redirectBack(w, r)
}

// HandleComment appends a comment. POST /comment/{id}
func (h *QuoteHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	_, err := h.quotes.AddComment(r.Context(), user.ID, r.PathValue("id"), r.FormValue("commentText"))
	if h.failed(w, err) {
		return
	}
	redirectBack(w, r)
}

// HandleDelete deletes an owned quote, or silently does nothing.
// POST /delete/{id}
func (h *QuoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	if err := h.quotes.Delete(r.Context(), user.ID, r.PathValue("id")); h.failed(w, err) {
		return
	}
	redirectBack(w, r)
}

// failed decides whether err ends the request with a 500. Not-found and
// validation are expected outcomes on these endpoints — the caller still
// redirects, per the silent-redirect policy. Anything else (including a
// consistency fault that survived its retry) is a server failure.
func (h *QuoteHandler) failed(w http.ResponseWriter, err error) bool {
	if err == nil ||
		errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrValidation) {
		return false
	}

	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	return true
}
