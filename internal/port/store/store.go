// Package store defines the state store ports (interfaces).
package store

import (
	"context"
	"time"

	"github.com/homeroom-dev/homeroom/internal/domain/activity"
	"github.com/homeroom-dev/homeroom/internal/domain/authz"
	"github.com/homeroom-dev/homeroom/internal/domain/tenant"
)

// TenantStore is the port interface for tenant state. It owns its
// tenants exclusively: mutation goes through store methods, and the
// auth-key index can only drift from tenant state between a method's
// lock acquisitions, never across them.
//
// The store performs no authorization; HTTP guards do.
type TenantStore interface {
	// CreateTenant provisions an active tenant with one valid auth key.
	// The domain must be unique across tenants.
	CreateTenant(ctx context.Context, name, domain string, keyTTL time.Duration) (*tenant.Tenant, error)

	// GetTenant returns the tenant by ID.
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)

	// GetTenantByAuthKey authenticates a key: index lookup, then a
	// double-check that the key is still the tenant's current valid
	// credential. Revoked, expired, and stale-index keys all miss.
	GetTenantByAuthKey(ctx context.Context, key string) (*tenant.Tenant, error)

	// GetTenantByDomain returns the first ACTIVE tenant whose domain
	// equals host (any ":port" suffix stripped).
	GetTenantByDomain(ctx context.Context, host string) (*tenant.Tenant, error)

	// ListTenants returns the active tenants.
	ListTenants(ctx context.Context) ([]*tenant.Tenant, error)

	// DeactivateTenant disables the tenant and revokes all its keys.
	DeactivateTenant(ctx context.Context, id string) error

	// ReactivateTenant re-enables the tenant, minting a fresh key with
	// the given TTL only when no valid key survived. The minted key is
	// nil otherwise.
	ReactivateTenant(ctx context.Context, id string, keyTTL time.Duration) (*tenant.AuthKey, error)

	// GenerateAuthKey mints an additional key for the tenant.
	GenerateAuthKey(ctx context.Context, id string, ttl time.Duration) (*tenant.AuthKey, error)

	// RevokeAuthKey revokes the given key on the tenant.
	RevokeAuthKey(ctx context.Context, id, key string) error

	// ListAuthKeys returns all keys of the tenant, oldest first.
	ListAuthKeys(ctx context.Context, id string) ([]*tenant.AuthKey, error)
}

// UserDirectory is the port interface for per-tenant users and roles.
type UserDirectory interface {
	PutUser(ctx context.Context, tenantID string, u *authz.User) error
	GetUserByEmail(ctx context.Context, tenantID, email string) (*authz.User, error)
	PutRole(ctx context.Context, tenantID string, r authz.Role) error
	GetRole(ctx context.Context, tenantID, name string) (authz.Role, error)
	ListRoles(ctx context.Context, tenantID string) ([]authz.Role, error)
}

// ActivityStore is the port interface for per-tenant activity rosters.
type ActivityStore interface {
	PutActivity(ctx context.Context, tenantID string, a *activity.Activity) error
	GetActivity(ctx context.Context, tenantID, name string) (*activity.Activity, error)
	ListActivities(ctx context.Context, tenantID string) ([]*activity.Activity, error)
	SignUp(ctx context.Context, tenantID, activityName, email string) error
	Unregister(ctx context.Context, tenantID, activityName, email string) error
}

// Store aggregates every port a fully wired server needs.
type Store interface {
	TenantStore
	UserDirectory
	ActivityStore
}
