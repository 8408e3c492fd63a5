package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/homeroom-dev/homeroom/internal/domain"
	"github.com/homeroom-dev/homeroom/internal/domain/tenant"
)

// CreateTenant provisions an active tenant with one valid, indexed key.
// The domain must not collide with any existing tenant's.
func (s *Store) CreateTenant(_ context.Context, name, domainName string, keyTTL time.Duration) (*tenant.Tenant, error) {
	normalized := tenant.NormalizeDomain(domainName)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Domain == normalized {
			return nil, fmt.Errorf("create tenant %q: domain %s taken: %w", name, normalized, domain.ErrConflict)
		}
	}

	t := tenant.New(name, normalized, keyTTL)
	s.tenants[t.ID] = t
	for _, k := range t.AuthKeys {
		s.keyIndex[k.Key] = t.ID
	}
	return t.Clone(), nil
}

// GetTenant returns the tenant by ID.
func (s *Store) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.getTenantLocked(id)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// getTenantLocked requires at least the read lock. It returns the live
// struct; read paths must Clone before the lock is released.
func (s *Store) getTenantLocked(id string) (*tenant.Tenant, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// GetTenantByAuthKey authenticates a key. The index lookup alone is not
// trusted: the key must still be the tenant's current valid credential.
// A rotated-in newer key therefore only authenticates once every older
// valid key is gone, and revoked or expired keys always miss even if the
// index still carries them.
func (s *Store) GetTenantByAuthKey(_ context.Context, key string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.keyIndex[key]
	if !ok {
		return nil, fmt.Errorf("auth key lookup: %w", domain.ErrNotFound)
	}
	t, ok := s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("auth key lookup: %w", domain.ErrNotFound)
	}
	current := t.ValidAuthKey(time.Now().UTC())
	if current == nil || current.Key != key {
		return nil, fmt.Errorf("auth key lookup: %w", domain.ErrNotFound)
	}
	return t.Clone(), nil
}

// GetTenantByDomain returns the first active tenant registered for the
// host, with any ":port" suffix stripped. Inactive tenants are invisible
// by domain; they stay reachable by ID for admin reactivation.
func (s *Store) GetTenantByDomain(_ context.Context, host string) (*tenant.Tenant, error) {
	normalized := tenant.NormalizeDomain(host)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if t.Domain == normalized && t.Active {
			return t.Clone(), nil
		}
	}
	return nil, fmt.Errorf("get tenant by domain %s: %w", normalized, domain.ErrNotFound)
}

// ListTenants returns active tenants ordered by creation time.
func (s *Store) ListTenants(_ context.Context) ([]*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		if t.Active {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeactivateTenant disables the tenant, revokes every key, and drops
// them from the index.
func (s *Store) DeactivateTenant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTenantLocked(id)
	if err != nil {
		return err
	}
	t.Deactivate()
	for _, k := range t.AuthKeys {
		delete(s.keyIndex, k.Key)
	}
	return nil
}

// ReactivateTenant re-enables the tenant and re-indexes every
// currently-valid key; reactivation can mint a fresh key that the index
// has never seen.
func (s *Store) ReactivateTenant(_ context.Context, id string, keyTTL time.Duration) (*tenant.AuthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTenantLocked(id)
	if err != nil {
		return nil, err
	}
	minted := t.Reactivate(keyTTL)
	for _, k := range t.ValidAuthKeys(time.Now().UTC()) {
		s.keyIndex[k.Key] = t.ID
	}
	if minted == nil {
		return nil, nil
	}
	mc := *minted
	return &mc, nil
}

// GenerateAuthKey mints an additional key for the tenant and indexes it.
func (s *Store) GenerateAuthKey(_ context.Context, id string, ttl time.Duration) (*tenant.AuthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTenantLocked(id)
	if err != nil {
		return nil, err
	}
	k := t.GenerateAuthKey(ttl)
	s.keyIndex[k.Key] = t.ID
	kc := *k
	return &kc, nil
}

// RevokeAuthKey revokes the key and removes it from the index.
func (s *Store) RevokeAuthKey(_ context.Context, id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.getTenantLocked(id)
	if err != nil {
		return err
	}
	if !t.RevokeAuthKey(key) {
		return fmt.Errorf("revoke key on tenant %s: %w", id, domain.ErrNotFound)
	}
	delete(s.keyIndex, key)
	return nil
}

// ListAuthKeys returns all of the tenant's keys, oldest first.
func (s *Store) ListAuthKeys(_ context.Context, id string) ([]*tenant.AuthKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.getTenantLocked(id)
	if err != nil {
		return nil, err
	}
	out := make([]*tenant.AuthKey, len(t.AuthKeys))
	for i, k := range t.AuthKeys {
		kc := *k
		out[i] = &kc
	}
	return out, nil
}
