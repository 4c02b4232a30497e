package model

import "time"

// APIKey is a persisted credential record. The raw key is never stored;
// KeyHash is the lowercase hex SHA-256 digest of the full key string.
type APIKey struct {
	ID        int64     `json:"id" db:"id"`
	KeyHash   string    `json:"-" db:"key_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Fingerprint returns a short prefix of the hash, safe to show in listings
// and logs.
func (k APIKey) Fingerprint() string {
	if len(k.KeyHash) < 12 {
		return k.KeyHash
	}
	return k.KeyHash[:12]
}

// IssuedKey is returned exactly once, when a key is created.
type IssuedKey struct {
	APIKey string `json:"api_key"`
}
