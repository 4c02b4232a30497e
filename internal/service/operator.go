package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/session"
)

// OperatorPrincipal names the single console identity.
const OperatorPrincipal = "operator"

// OperatorService guards the console with the operator password.
type OperatorService struct {
	passwordHash []byte
	sessions     *session.Manager
	logger       *slog.Logger
}

func NewOperatorService(passwordHash []byte, sessions *session.Manager, logger *slog.Logger) *OperatorService {
	return &OperatorService{
		passwordHash: passwordHash,
		sessions:     sessions,
		logger:       logger,
	}
}

// Login checks password and, on a match, opens a session and returns its
// token.
func (o *OperatorService) Login(password string) (string, session.Session, error) {
	if password == "" || bcrypt.CompareHashAndPassword(o.passwordHash, []byte(password)) != nil {
		o.logger.Warn("operator login rejected")
		return "", session.Session{}, ErrInvalidPassword
	}
	token, sess, err := o.sessions.Create(OperatorPrincipal)
	if err != nil {
		return "", session.Session{}, err
	}
	o.logger.Info("operator logged in", "session", sess.ID)
	return token, sess, nil
}

// Session resolves a session token.
func (o *OperatorService) Session(token string) (session.Session, error) {
	return o.sessions.Lookup(token)
}

// Logout ends the session behind token.
func (o *OperatorService) Logout(token string) {
	o.sessions.Revoke(token)
}

// SessionTTL is the lifetime of sessions opened by Login.
func (o *OperatorService) SessionTTL() int {
	return int(o.sessions.TTL().Seconds())
}

// HashPassword returns a bcrypt hash suitable for auth.operator_password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// ResolvePasswordHash returns the bcrypt hash to check operator logins
// against. When neither a hash nor a password is configured, a random
// password is generated and returned as generated so it can be shown once.
func ResolvePasswordHash(cfg config.AuthConfig) (hash []byte, generated string, err error) {
	if cfg.OperatorPasswordHash != "" {
		return []byte(cfg.OperatorPasswordHash), "", nil
	}
	password := cfg.OperatorPassword
	if password == "" {
		if generated, err = randomToken(18); err != nil {
			return nil, "", err
		}
		password = generated
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash operator password: %w", err)
	}
	return h, generated, nil
}

// ResolveSessionSecret returns the configured session signing secret, or a
// random one that lasts for the life of the process.
func ResolveSessionSecret(cfg config.AuthConfig) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	return buf, nil
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
