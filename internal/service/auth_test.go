package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/chatgate/chatgate/internal/config"
	"github.com/chatgate/chatgate/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func newTestAuth(t *testing.T) (*AuthService, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	return NewAuthService(s, "g4f-", discardLogger()), s
}

// stubKeyStore records calls and delegates to optional function fields.
type stubKeyStore struct {
	mu          sync.Mutex
	insertCalls int
	existsCalls int
	insertFn    func(ctx context.Context, hash string) error
	existsFn    func(ctx context.Context, hash string) (bool, error)
}

func (s *stubKeyStore) InsertHash(ctx context.Context, hash string) error {
	s.mu.Lock()
	s.insertCalls++
	s.mu.Unlock()
	if s.insertFn != nil {
		return s.insertFn(ctx, hash)
	}
	return nil
}

func (s *stubKeyStore) HashExists(ctx context.Context, hash string) (bool, error) {
	s.mu.Lock()
	s.existsCalls++
	s.mu.Unlock()
	if s.existsFn != nil {
		return s.existsFn(ctx, hash)
	}
	return false, nil
}

var keyPattern = regexp.MustCompile(`^g4f-[A-Za-z0-9_-]{43}$`)

func TestIssueAndAuthenticateRoundTrip(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	key, err := auth.IssueKey(ctx)
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}
	if !keyPattern.MatchString(key) {
		t.Fatalf("issued key %q does not match %s", key, keyPattern)
	}

	ok, err := auth.Authenticate(ctx, key)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Fatal("freshly issued key was rejected")
	}

	// Every single-character mutation must be rejected.
	for i := 0; i < len(key); i++ {
		swap := byte('x')
		if key[i] == 'x' {
			swap = 'y'
		}
		mutated := key[:i] + string(swap) + key[i+1:]
		ok, err := auth.Authenticate(ctx, mutated)
		if err != nil {
			t.Fatalf("Authenticate(mutated at %d): %v", i, err)
		}
		if ok {
			t.Fatalf("key mutated at position %d was accepted", i)
		}
	}
}

func TestIssueKeyStoresOnlyTheHash(t *testing.T) {
	auth, s := newTestAuth(t)
	ctx := context.Background()

	key, err := auth.IssueKey(ctx)
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}

	keys, err := s.ListKeys(ctx, 0)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("ListKeys returned %d keys, want 1", len(keys))
	}
	if keys[0].KeyHash != HashKey(key) {
		t.Errorf("stored hash %s, want %s", keys[0].KeyHash, HashKey(key))
	}
	if keys[0].KeyHash == key {
		t.Error("raw key was stored")
	}
}

func TestIssueKeyUnique(t *testing.T) {
	auth, _ := newTestAuth(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := auth.IssueKey(context.Background())
		if err != nil {
			t.Fatalf("IssueKey: %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key issued: %s", key)
		}
		seen[key] = true
	}
}

func TestIssueKeyFailsClosed(t *testing.T) {
	stub := &stubKeyStore{
		insertFn: func(ctx context.Context, hash string) error {
			return errors.Join(store.ErrStorageUnavailable, errors.New("connection refused"))
		},
	}
	auth := NewAuthService(stub, "g4f-", discardLogger())

	key, err := auth.IssueKey(context.Background())
	if err == nil {
		t.Fatal("expected error when the hash cannot be stored")
	}
	if key != "" {
		t.Errorf("IssueKey returned key %q despite storage failure", key)
	}
	if !errors.Is(err, store.ErrStorageUnavailable) {
		t.Errorf("error %v should wrap ErrStorageUnavailable", err)
	}
	if stub.insertCalls != 1 {
		t.Errorf("InsertHash called %d times, want 1", stub.insertCalls)
	}
}

func TestAuthenticateEmptyKey(t *testing.T) {
	stub := &stubKeyStore{
		existsFn: func(ctx context.Context, hash string) (bool, error) {
			return true, nil
		},
	}
	auth := NewAuthService(stub, "g4f-", discardLogger())

	ok, err := auth.Authenticate(context.Background(), "")
	if err != nil {
		t.Fatalf("Authenticate(\"\"): %v", err)
	}
	if ok {
		t.Error("empty key was accepted")
	}
	if stub.existsCalls != 0 {
		t.Errorf("store consulted %d times for an empty key", stub.existsCalls)
	}
}

func TestAuthenticateStoreFailureIsDistinct(t *testing.T) {
	stub := &stubKeyStore{
		existsFn: func(ctx context.Context, hash string) (bool, error) {
			return false, errors.New("dial tcp 10.0.0.5:5432: connection refused")
		},
	}
	auth := NewAuthService(stub, "g4f-", discardLogger())

	ok, err := auth.Authenticate(context.Background(), "g4f-anything")
	if err == nil {
		t.Fatal("store failure must surface as an error, not a rejection")
	}
	if ok {
		t.Error("store failure must not accept the key")
	}
	if !errors.Is(err, store.ErrStorageUnavailable) {
		t.Errorf("error %v should wrap ErrStorageUnavailable", err)
	}
}

func TestAuthenticateClosedStore(t *testing.T) {
	auth, s := newTestAuth(t)
	s.Close()

	_, err := auth.Authenticate(context.Background(), "g4f-anything")
	if !errors.Is(err, store.ErrStorageUnavailable) {
		t.Errorf("Authenticate on closed store = %v, want ErrStorageUnavailable", err)
	}
}

func TestHashKey(t *testing.T) {
	// SHA-256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashKey("abc"); got != want {
		t.Errorf("HashKey(abc) = %s, want %s", got, want)
	}
	if len(HashKey("g4f-x")) != 64 {
		t.Error("hash should be 64 hex characters")
	}
}
