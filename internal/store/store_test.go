package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/chatgate/chatgate/internal/config"
)

const (
	hashA = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"
	hashB = "aaaabbbbccccddddeeeeffff00001111222233334444555566667777888899990"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return s
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertHash(ctx, hashA); err != nil {
		t.Fatalf("InsertHash: %v", err)
	}
	// A second run must neither fail nor drop existing rows.
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
	ok, err := s.HashExists(ctx, hashA)
	if err != nil {
		t.Fatalf("HashExists: %v", err)
	}
	if !ok {
		t.Error("hash lost after re-running EnsureSchema")
	}
}

func TestInsertHashIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertHash(ctx, hashA); err != nil {
		t.Fatalf("first InsertHash: %v", err)
	}
	if err := s.InsertHash(ctx, hashA); err != nil {
		t.Fatalf("duplicate InsertHash should be a no-op, got: %v", err)
	}

	n, err := s.CountKeys(ctx)
	if err != nil {
		t.Fatalf("CountKeys: %v", err)
	}
	if n != 1 {
		t.Errorf("CountKeys = %d after duplicate insert, want 1", n)
	}
}

func TestHashExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.HashExists(ctx, hashA)
	if err != nil {
		t.Fatalf("HashExists on empty table: %v", err)
	}
	if ok {
		t.Error("HashExists = true on empty table")
	}

	if err := s.InsertHash(ctx, hashA); err != nil {
		t.Fatalf("InsertHash: %v", err)
	}

	ok, err = s.HashExists(ctx, hashA)
	if err != nil {
		t.Fatalf("HashExists: %v", err)
	}
	if !ok {
		t.Error("HashExists = false for inserted hash")
	}

	ok, err = s.HashExists(ctx, hashB)
	if err != nil {
		t.Fatalf("HashExists: %v", err)
	}
	if ok {
		t.Error("HashExists = true for a hash never inserted")
	}
}

func TestListKeysNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, h := range []string{hashA, hashB} {
		if err := s.InsertHash(ctx, h); err != nil {
			t.Fatalf("InsertHash: %v", err)
		}
	}

	keys, err := s.ListKeys(ctx, 0)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("ListKeys returned %d keys, want 2", len(keys))
	}
	if keys[0].KeyHash != hashB || keys[1].KeyHash != hashA {
		t.Errorf("ListKeys order = [%s %s], want newest first", keys[0].Fingerprint(), keys[1].Fingerprint())
	}
	if keys[0].ID <= keys[1].ID {
		t.Errorf("ids not increasing: %d, %d", keys[1].ID, keys[0].ID)
	}
	if keys[0].CreatedAt.IsZero() {
		t.Error("created_at should be populated by the database default")
	}

	limited, err := s.ListKeys(ctx, 1)
	if err != nil {
		t.Fatalf("ListKeys(limit=1): %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListKeys(limit=1) returned %d keys", len(limited))
	}
}

func TestDeleteKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertHash(ctx, hashA); err != nil {
		t.Fatalf("InsertHash: %v", err)
	}
	keys, err := s.ListKeys(ctx, 0)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}

	got, err := s.GetKey(ctx, keys[0].ID)
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if got.KeyHash != hashA {
		t.Errorf("GetKey hash = %s, want %s", got.KeyHash, hashA)
	}

	if err := s.DeleteKey(ctx, keys[0].ID); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	ok, err := s.HashExists(ctx, hashA)
	if err != nil {
		t.Fatalf("HashExists: %v", err)
	}
	if ok {
		t.Error("hash still present after DeleteKey")
	}

	if err := s.DeleteKey(ctx, keys[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteKey = %v, want ErrNotFound", err)
	}
	if _, err := s.GetKey(ctx, keys[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetKey after delete = %v, want ErrNotFound", err)
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Close()

	_, err := s.HashExists(ctx, hashA)
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("HashExists on closed store = %v, want ErrStorageUnavailable", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("unavailable store must not report ErrNotFound")
	}

	if err := s.InsertHash(ctx, hashA); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("InsertHash on closed store = %v, want ErrStorageUnavailable", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Ping on closed store = %v, want ErrStorageUnavailable", err)
	}
}

func TestMissingTableIsUnavailable(t *testing.T) {
	s, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.HashExists(context.Background(), hashA); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("HashExists without schema = %v, want ErrStorageUnavailable", err)
	}
}

func TestConcurrentInsertSameHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.InsertHash(ctx, hashA)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent InsertHash: %v", err)
		}
	}
	n, err := s.CountKeys(ctx)
	if err != nil {
		t.Fatalf("CountKeys: %v", err)
	}
	if n != 1 {
		t.Errorf("CountKeys = %d, want 1", n)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestNormalizeMySQLDSNSetsParseTime(t *testing.T) {
	d, err := lookupDialect("mysql")
	if err != nil {
		t.Fatalf("lookupDialect: %v", err)
	}
	dsn, err := normalizeDSN(d, "gate:pw@tcp(127.0.0.1:3306)/gate")
	if err != nil {
		t.Fatalf("normalizeDSN: %v", err)
	}
	if want := "parseTime=true"; !strings.Contains(dsn, want) {
		t.Errorf("normalized dsn %q does not contain %q", dsn, want)
	}
}
