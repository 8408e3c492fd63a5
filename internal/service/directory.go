package service

import (
	"context"

	"github.com/homeroom-dev/homeroom/internal/domain/authz"
	"github.com/homeroom-dev/homeroom/internal/port/store"
)

// DirectoryService answers identity and role lookups within a tenant.
type DirectoryService struct {
	store store.UserDirectory
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(st store.UserDirectory) *DirectoryService {
	return &DirectoryService{store: st}
}

// GetUserByEmail returns the tenant's user with that email.
func (s *DirectoryService) GetUserByEmail(ctx context.Context, tenantID, email string) (*authz.User, error) {
	return s.store.GetUserByEmail(ctx, tenantID, email)
}

// GetRole returns the tenant's role by name.
func (s *DirectoryService) GetRole(ctx context.Context, tenantID, name string) (authz.Role, error) {
	return s.store.GetRole(ctx, tenantID, name)
}

// ListRoles returns the tenant's role catalog sorted by name.
func (s *DirectoryService) ListRoles(ctx context.Context, tenantID string) ([]authz.Role, error) {
	return s.store.ListRoles(ctx, tenantID)
}
