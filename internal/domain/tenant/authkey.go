package tenant

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// KeyPrefix is prepended to generated auth keys for identification.
const KeyPrefix = "hrk_"

// DefaultKeyTTL is the lifetime of a freshly minted auth key.
const DefaultKeyTTL = 365 * 24 * time.Hour

// AuthKey is an opaque credential bound to a tenant. Keys expire on a
// schedule and can be revoked early; revocation is one-way.
type AuthKey struct {
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// NewAuthKey mints a key valid for ttl from now. A non-positive ttl
// falls back to DefaultKeyTTL.
func NewAuthKey(ttl time.Duration) *AuthKey {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	now := time.Now().UTC()
	return &AuthKey{
		Key:       KeyPrefix + randomHex(16),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		Active:    true,
	}
}

// Valid reports whether the key is usable at the given instant: it must
// be active and strictly before its expiry.
func (k *AuthKey) Valid(now time.Time) bool {
	return k.Active && now.Before(k.ExpiresAt)
}

// Revoke deactivates the key. There is no way to re-activate a revoked
// key; mint a new one instead.
func (k *AuthKey) Revoke() {
	k.Active = false
}

// randomHex returns n random bytes hex-encoded (2n chars).
func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
