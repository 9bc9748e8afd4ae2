package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "session"

// TokenService signs session tokens into cookie values and verifies them
// back out.
//
// The session itself is a server-side row — the cookie only carries the
// opaque session token (as the JWT subject), never the user record. The
// HS256 signature makes the cookie tamper-evident, so a forged or
// bit-flipped cookie is rejected before it costs us a database lookup.
// Revocation is the session row's job: deleting the row kills the login
// even while the cookie signature is still valid.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given signing secret.
// Generate one with e.g. `openssl rand -hex 32`.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Sign wraps a session token in a signed cookie value. The expiry here
// mirrors the session row's expiry; the row is authoritative, the claim
// just lets us reject stale cookies without touching the store.
func (s *TokenService) Sign(sessionToken string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionToken,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "quotefeed",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session cookie: %w", err)
	}

	return signed, nil
}

// Verify checks a cookie value's signature and expiry and returns the
// session token inside it.
func (s *TokenService) Verify(cookieValue string) (string, error) {
	token, err := jwt.ParseWithClaims(
		cookieValue,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer("quotefeed"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: session cookie expired")
		}
		return "", fmt.Errorf("auth: invalid session cookie: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid session cookie claims")
	}

	if c.Subject == "" {
		return "", fmt.Errorf("auth: session cookie has no subject")
	}

	return c.Subject, nil
}
