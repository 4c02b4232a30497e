package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chatgate/chatgate/internal/store"
)

// KeyStore is the slice of the credential store the auth service needs.
type KeyStore interface {
	InsertHash(ctx context.Context, hash string) error
	HashExists(ctx context.Context, hash string) (bool, error)
}

// AuthService issues API keys and checks presented keys against the store.
type AuthService struct {
	store     KeyStore
	keyPrefix string
	logger    *slog.Logger
}

func NewAuthService(store KeyStore, keyPrefix string, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

// Authenticate reports whether rawKey was issued by this gateway. An empty
// key is rejected without consulting the store. Store failures are returned
// as errors wrapping store.ErrStorageUnavailable and never as false.
func (s *AuthService) Authenticate(ctx context.Context, rawKey string) (bool, error) {
	if rawKey == "" {
		return false, nil
	}
	ok, err := s.store.HashExists(ctx, HashKey(rawKey))
	if err != nil {
		if !errors.Is(err, store.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
		}
		return false, err
	}
	return ok, nil
}

// HashKey returns the hex-encoded SHA-256 hash of a raw API key string.
func HashKey(rawKey string) string {
	h := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(h[:])
}
