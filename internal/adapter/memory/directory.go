package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/homeroom-dev/homeroom/internal/domain"
	"github.com/homeroom-dev/homeroom/internal/domain/authz"
)

// PutUser registers a user in the tenant's directory, replacing any
// previous entry for the same email.
func (s *Store) PutUser(_ context.Context, tenantID string, u *authz.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getTenantLocked(tenantID); err != nil {
		return err
	}
	if s.users[tenantID] == nil {
		s.users[tenantID] = make(map[string]*authz.User)
	}
	s.users[tenantID][u.Email] = u
	return nil
}

// GetUserByEmail returns the tenant's user with that email. Users are
// tenant-scoped: the same email under another tenant is a different
// identity.
func (s *Store) GetUserByEmail(_ context.Context, tenantID, email string) (*authz.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[tenantID][email]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", email, domain.ErrNotFound)
	}
	return u, nil
}

// PutRole registers a role in the tenant's catalog, replacing any
// previous role of the same name.
func (s *Store) PutRole(_ context.Context, tenantID string, r authz.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getTenantLocked(tenantID); err != nil {
		return err
	}
	if s.roles[tenantID] == nil {
		s.roles[tenantID] = make(map[string]authz.Role)
	}
	s.roles[tenantID][r.Name] = r
	return nil
}

// GetRole returns the tenant's role by name.
func (s *Store) GetRole(_ context.Context, tenantID, name string) (authz.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.roles[tenantID][name]
	if !ok {
		return authz.Role{}, fmt.Errorf("get role %s: %w", name, domain.ErrNotFound)
	}
	return r, nil
}

// ListRoles returns the tenant's roles sorted by name.
func (s *Store) ListRoles(_ context.Context, tenantID string) ([]authz.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]authz.Role, 0, len(s.roles[tenantID]))
	for _, r := range s.roles[tenantID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
