package service

import (
	"context"
	"fmt"
)

// keyEntropyBytes is the amount of randomness in every issued key.
const keyEntropyBytes = 32

// IssueKey generates a new API key, records its hash and returns the raw
// key. The raw key is returned only once the hash is stored; on any
// failure the caller gets an error and no key.
func (s *AuthService) IssueKey(ctx context.Context) (string, error) {
	secret, err := randomToken(keyEntropyBytes)
	if err != nil {
		return "", err
	}
	rawKey := s.keyPrefix + secret
	hash := HashKey(rawKey)

	if err := s.store.InsertHash(ctx, hash); err != nil {
		return "", fmt.Errorf("store key hash: %w", err)
	}

	s.logger.Info("api key issued", "fingerprint", hash[:12])
	return rawKey, nil
}
