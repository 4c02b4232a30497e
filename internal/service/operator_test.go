package service

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/session"
)

func newTestOperator(t *testing.T, password string) *OperatorService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	sessions := session.NewManager([]byte("test-secret"), time.Hour)
	return NewOperatorService(hash, sessions, discardLogger())
}

func TestOperatorLogin(t *testing.T) {
	op := newTestOperator(t, "correct horse")

	token, sess, err := op.Login("correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Principal != OperatorPrincipal {
		t.Errorf("Principal = %q", sess.Principal)
	}

	got, err := op.Session(token)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("Session ID = %q, want %q", got.ID, sess.ID)
	}
}

func TestOperatorLoginRejects(t *testing.T) {
	op := newTestOperator(t, "correct horse")

	for _, pw := range []string{"", "wrong", "correct horse "} {
		if _, _, err := op.Login(pw); !errors.Is(err, ErrInvalidPassword) {
			t.Errorf("Login(%q) = %v, want ErrInvalidPassword", pw, err)
		}
	}
}

func TestOperatorLogout(t *testing.T) {
	op := newTestOperator(t, "pw")

	token, _, err := op.Login("pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	op.Logout(token)

	if _, err := op.Session(token); !errors.Is(err, session.ErrNoSession) {
		t.Errorf("Session after Logout = %v, want ErrNoSession", err)
	}
}

func TestResolvePasswordHash(t *testing.T) {
	t.Run("configured hash wins", func(t *testing.T) {
		h, err := bcrypt.GenerateFromPassword([]byte("a"), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		got, generated, err := ResolvePasswordHash(config.AuthConfig{
			OperatorPasswordHash: string(h),
			OperatorPassword:     "ignored",
		})
		if err != nil {
			t.Fatalf("ResolvePasswordHash: %v", err)
		}
		if generated != "" {
			t.Error("no password should be generated when a hash is configured")
		}
		if bcrypt.CompareHashAndPassword(got, []byte("a")) != nil {
			t.Error("resolved hash does not match the configured password")
		}
	})

	t.Run("plain password is hashed", func(t *testing.T) {
		got, generated, err := ResolvePasswordHash(config.AuthConfig{OperatorPassword: "admin123@@"})
		if err != nil {
			t.Fatalf("ResolvePasswordHash: %v", err)
		}
		if generated != "" {
			t.Error("no password should be generated when one is configured")
		}
		if bcrypt.CompareHashAndPassword(got, []byte("admin123@@")) != nil {
			t.Error("resolved hash does not match the configured password")
		}
	})

	t.Run("nothing configured generates", func(t *testing.T) {
		got, generated, err := ResolvePasswordHash(config.AuthConfig{})
		if err != nil {
			t.Fatalf("ResolvePasswordHash: %v", err)
		}
		if len(generated) < 16 {
			t.Fatalf("generated password %q too short", generated)
		}
		if bcrypt.CompareHashAndPassword(got, []byte(generated)) != nil {
			t.Error("resolved hash does not match the generated password")
		}
	})
}

func TestResolveSessionSecret(t *testing.T) {
	got, err := ResolveSessionSecret(config.AuthConfig{SessionSecret: "fixed"})
	if err != nil {
		t.Fatalf("ResolveSessionSecret: %v", err)
	}
	if string(got) != "fixed" {
		t.Errorf("secret = %q, want fixed", got)
	}

	a, err := ResolveSessionSecret(config.AuthConfig{})
	if err != nil {
		t.Fatalf("ResolveSessionSecret: %v", err)
	}
	b, _ := ResolveSessionSecret(config.AuthConfig{})
	if len(a) != 32 || string(a) == string(b) {
		t.Error("generated secrets should be 32 random bytes")
	}
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(h), []byte("s3cret")) != nil {
		t.Error("HashPassword output does not verify")
	}
}
