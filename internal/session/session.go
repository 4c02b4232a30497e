// Package session implements operator sessions for the console. They are
// unrelated to API keys: a session proves a human entered the operator
// password, an API key authorizes completion calls.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNoSession is returned for a missing, malformed, expired or revoked token.
var ErrNoSession = errors.New("no valid session")

const issuer = "chatgate"

// Session is an authenticated operator context.
type Session struct {
	ID        string
	Principal string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager issues signed session tokens and keeps the live sessions they
// point at. A token is only honored while its record exists, so Revoke
// takes effect immediately even though the token itself is still signed.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// NewManager returns a Manager signing with secret and issuing sessions that
// live for ttl.
func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
}

// TTL returns the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a session for principal and returns its bearer token.
func (m *Manager) Create(principal string) (string, Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", Session{}, fmt.Errorf("generate session id: %w", err)
	}
	now := m.now()
	sess := Session{
		ID:        id.String(),
		Principal: principal,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   principal,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return token, sess, nil
}

// Lookup resolves token to its live session.
func (m *Manager) Lookup(token string) (Session, error) {
	id, err := m.parse(token)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNoSession
	}
	if !m.now().Before(sess.ExpiresAt) {
		delete(m.sessions, id)
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Revoke ends the session behind token. Unknown or invalid tokens are ignored.
func (m *Manager) Revoke(token string) {
	id, err := m.parse(token)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, sess := range m.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of sessions currently held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) parse(token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || claims.ID == "" {
		return "", ErrNoSession
	}
	return claims.ID, nil
}
