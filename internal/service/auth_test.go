package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/quotefeed/internal/apperror"
	"github.com/sakif/quotefeed/internal/auth"
)

func newTestAuthService() (*AuthService, *fakeUserRepo, *fakeSessionRepo) {
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	return NewAuthService(users, sessions, passwords, 0, discardLogger()), users, sessions
}

func TestRegister(t *testing.T) {
	svc, users, _ := newTestAuthService()

	user, err := svc.Register(context.Background(), "  alice  ", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q, want trimmed %q", user.Username, "alice")
	}
	if user.PasswordHash == "" || user.PasswordHash == "hunter22" {
		t.Errorf("password stored as %q — not hashed", user.PasswordHash)
	}
	if _, ok := users.users[user.ID]; !ok {
		t.Error("user was not persisted")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"whitespace username", "   ", "pw"},
		{"long username", strings.Repeat("a", MaxUsernameLength+1), "pw"},
		{"empty password", "alice", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, err := svc.Register(context.Background(), "alice", "first"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), "alice", "second")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() error = %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestAuthService()
	registered, err := svc.Register(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.Login(context.Background(), "alice", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Login() user ID = %q, want %q", user.ID, registered.ID)
	}
}

// Unknown user and wrong password are distinct kinds internally; the
// handler is responsible for presenting them identically.
func TestLogin_Failures(t *testing.T) {
	svc, _, _ := newTestAuthService()
	if _, err := svc.Register(context.Background(), "alice", "hunter22"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Login(context.Background(), "ghost", "hunter22")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Login() unknown user error = %v, want ErrNotFound", err)
	}

	_, err = svc.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, apperror.ErrBadCredential) {
		t.Errorf("Login() wrong password error = %v, want ErrBadCredential", err)
	}
}

func TestLogin_OAuthOnlyAccount(t *testing.T) {
	svc, _, _ := newTestAuthService()

	// GitHub accounts have an empty password hash; a password login
	// against one must fail, never panic or succeed.
	if _, err := svc.LoginGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "octocat"}); err != nil {
		t.Fatalf("LoginGitHub() error = %v", err)
	}
	_, err := svc.Login(context.Background(), "octocat", "")
	if !errors.Is(err, apperror.ErrBadCredential) {
		t.Errorf("Login() against OAuth account error = %v, want ErrBadCredential", err)
	}
}

func TestLoginGitHub_Reuse(t *testing.T) {
	svc, _, _ := newTestAuthService()

	first, err := svc.LoginGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "octocat"})
	if err != nil {
		t.Fatalf("LoginGitHub() error = %v", err)
	}
	second, err := svc.LoginGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "octodog"})
	if err != nil {
		t.Fatalf("LoginGitHub() second call error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second login created a new account: %q != %q", second.ID, first.ID)
	}
	if second.Username != "octodog" {
		t.Errorf("username = %q, want refreshed %q", second.Username, "octodog")
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _, sessions := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	session, err := svc.StartSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if session.Token == "" {
		t.Fatal("StartSession() returned an empty token")
	}

	resolved, err := svc.ResolveSession(ctx, session.Token)
	if err != nil {
		t.Fatalf("ResolveSession() error = %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("ResolveSession() user = %q, want %q", resolved.ID, user.ID)
	}

	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.ResolveSession(ctx, session.Token); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ResolveSession() after logout error = %v, want ErrNotFound", err)
	}
	if len(sessions.sessions) != 0 {
		t.Error("session row survived logout")
	}
}

func TestResolveSession_DeletedUser(t *testing.T) {
	svc, users, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	session, err := svc.StartSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	// The lookup is live: a vanished user turns the session anonymous.
	delete(users.users, user.ID)

	if _, err := svc.ResolveSession(ctx, session.Token); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ResolveSession() error = %v, want ErrNotFound", err)
	}
}

func TestSessionTTL_Default(t *testing.T) {
	svc, _, _ := newTestAuthService()
	if svc.SessionTTL() != DefaultSessionTTL {
		t.Errorf("SessionTTL() = %v, want %v", svc.SessionTTL(), DefaultSessionTTL)
	}
}
