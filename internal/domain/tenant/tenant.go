// Package tenant defines the tenant domain model: isolated schools with
// their auth-key credentials and lifecycle.
package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated school. AuthKeys are kept in insertion order, so
// the oldest still-valid key is always the tenant's current credential.
// Mutating methods are not safe for concurrent use; the store serializes
// access.
type Tenant struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Domain    string            `json:"domain"`
	CreatedAt time.Time         `json:"created_at"`
	AuthKeys  []*AuthKey        `json:"auth_keys"`
	Active    bool              `json:"active"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// New creates an active tenant with exactly one valid auth key.
func New(name, domain string, keyTTL time.Duration) *Tenant {
	return &Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		Domain:    domain,
		CreatedAt: time.Now().UTC(),
		AuthKeys:  []*AuthKey{NewAuthKey(keyTTL)},
		Active:    true,
		Metadata:  make(map[string]string),
	}
}

// Clone returns a deep copy. The clone shares no memory with the
// receiver, so callers may read it without holding the store's lock.
func (t *Tenant) Clone() *Tenant {
	out := *t
	out.AuthKeys = make([]*AuthKey, len(t.AuthKeys))
	for i, k := range t.AuthKeys {
		kc := *k
		out.AuthKeys[i] = &kc
	}
	if t.Metadata != nil {
		out.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// ValidAuthKey returns the earliest-created key that is still valid at
// now, or nil when none is. Insertion order makes this the first valid
// entry in AuthKeys.
func (t *Tenant) ValidAuthKey(now time.Time) *AuthKey {
	for _, k := range t.AuthKeys {
		if k.Valid(now) {
			return k
		}
	}
	return nil
}

// ValidAuthKeys returns every key still valid at now, oldest first.
func (t *Tenant) ValidAuthKeys(now time.Time) []*AuthKey {
	var out []*AuthKey
	for _, k := range t.AuthKeys {
		if k.Valid(now) {
			out = append(out, k)
		}
	}
	return out
}

// GenerateAuthKey mints and appends a fresh key. Existing keys stay
// untouched, which gives rotation an overlap window where both old and
// new keys authenticate.
func (t *Tenant) GenerateAuthKey(ttl time.Duration) *AuthKey {
	k := NewAuthKey(ttl)
	t.AuthKeys = append(t.AuthKeys, k)
	return k
}

// RevokeAuthKey revokes the key with the given value. Returns false when
// no such key exists.
func (t *Tenant) RevokeAuthKey(key string) bool {
	for _, k := range t.AuthKeys {
		if k.Key == key {
			k.Revoke()
			return true
		}
	}
	return false
}

// Deactivate disables the tenant and revokes every auth key, so a
// deactivated tenant holds no valid credential.
func (t *Tenant) Deactivate() {
	t.Active = false
	for _, k := range t.AuthKeys {
		k.Revoke()
	}
}

// Reactivate re-enables the tenant. A fresh key is minted only when no
// currently-valid key exists (deactivation revokes all keys, so this is
// the usual case); the minted key is returned, or nil when an existing
// valid key already serves.
func (t *Tenant) Reactivate(ttl time.Duration) *AuthKey {
	t.Active = true
	if t.ValidAuthKey(time.Now().UTC()) == nil {
		return t.GenerateAuthKey(ttl)
	}
	return nil
}
