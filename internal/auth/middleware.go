package auth

import (
	"context"
	"net/http"

	"github.com/sakif/quotefeed/internal/model"
)

// contextKey is an unexported type for context keys in this package, so
// no other package can read or shadow the current-user value.
type contextKey string

const currentUserKey contextKey = "currentUser"

// UserResolver resolves an opaque session token to a live user record.
// Implemented by service.AuthService; an interface here keeps this
// package from importing the service layer.
type UserResolver interface {
	ResolveSession(ctx context.Context, sessionToken string) (*model.User, error)
}

// CurrentUser is middleware that resolves the session cookie, if any,
// into the request context. It never blocks a request: no cookie, a bad
// signature, an expired or revoked session, or a since-deleted user all
// just leave the request anonymous.
//
// The lookup is live on every request — session row, then user row — so
// a logout or account change takes effect on the very next request, not
// whenever a cached snapshot expires.
func CurrentUser(resolver UserResolver, tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := resolveUser(r, resolver, tokens); user != nil {
				ctx := context.WithValue(r.Context(), currentUserKey, user)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser is middleware for the state-changing routes. An anonymous
// request is redirected to the login page before any handler — and
// therefore any mutation — runs. It sits behind CurrentUser and only
// inspects the context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the resolved current user, or (nil, false) for
// an anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*model.User)
	return user, ok && user != nil
}

func resolveUser(r *http.Request, resolver UserResolver, tokens *TokenService) *model.User {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sessionToken, err := tokens.Verify(cookie.Value)
	if err != nil {
		return nil
	}

	user, err := resolver.ResolveSession(r.Context(), sessionToken)
	if err != nil {
		return nil
	}
	return user
}
