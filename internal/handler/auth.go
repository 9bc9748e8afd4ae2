package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/quotefeed/internal/auth"
	"github.com/sakif/quotefeed/internal/service"
)

// AuthHandler serves the login/register forms and manages the session
// cookie. github is nil unless OAuth credentials were configured.
type AuthHandler struct {
	auths  *service.AuthService
	tokens *auth.TokenService
	github *auth.GitHubProvider
	render *Renderer
	logger *slog.Logger
}

func NewAuthHandler(
	auths *service.AuthService,
	tokens *auth.TokenService,
	github *auth.GitHubProvider,
	render *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auths:  auths,
		tokens: tokens,
		github: github,
		render: render,
		logger: logger,
	}
}

// HandleLoginPage renders the login form. GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	h.render.Render(w, "login", pageData{
		Title:       "Log in",
		CurrentUser: user,
		GitHubLogin: h.github != nil,
	})
}

// HandleRegisterPage renders the registration form. GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	h.render.Render(w, "register", pageData{Title: "Register", CurrentUser: user})
}

// HandleRegister creates an account. POST /register
//
// Success lands on the login page. Failure (taken username, empty
// fields) goes back to the form; the reason is logged, not displayed —
// the surface stays redirect-only like every other form here.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if _, err := h.auths.Register(r.Context(), username, password); err != nil {
		h.logger.Warn("registration failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// HandleLogin authenticates and opens a session. POST /login
//
// Unknown username and wrong password produce byte-identical responses:
// a redirect back to /login. Only the log line differs.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.auths.Login(r.Context(), username, password)
	if err != nil {
		h.logger.Info("login failed",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if !h.openSession(w, r, user.ID) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout destroys the session, then redirects to the feed.
// GET /logout
//
// The session row is deleted before the redirect is written — by the
// time the browser follows it, the old token already resolves to
// anonymous regardless of any cookie it still holds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
		if sessionToken, err := h.tokens.Verify(cookie.Value); err == nil {
			if err := h.auths.Logout(r.Context(), sessionToken); err != nil {
				h.logger.Error("logout failed", slog.String("error", err.Error()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
		}
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleGitHubLogin starts the OAuth flow. GET /auth/github/login
//
// The random state value goes into a short-lived cookie; the callback
// compares it against what GitHub echoes back (CSRF check).
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow and opens a session.
// GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single-use — clear it.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	user, err := h.auths.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("oauth callback: login failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	if !h.openSession(w, r, user.ID) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// openSession creates the server-side session and sets the signed
// cookie. Reports false after writing an error response.
func (h *AuthHandler) openSession(w http.ResponseWriter, r *http.Request, userID string) bool {
	session, err := h.auths.StartSession(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to start session",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}

	signed, err := h.tokens.Sign(session.Token, h.auths.SessionTTL())
	if err != nil {
		h.logger.Error("failed to sign session cookie", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}

	// HttpOnly keeps scripts away from the cookie; SameSite=Lax keeps it
	// off cross-site POSTs. Secure is left to the deployment's proxy.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(h.auths.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
