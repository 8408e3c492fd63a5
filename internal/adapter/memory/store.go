// Package memory implements the store ports with in-process maps.
// State lives for the process lifetime; persistence is out of scope.
package memory

import (
	"sync"

	"github.com/homeroom-dev/homeroom/internal/domain/activity"
	"github.com/homeroom-dev/homeroom/internal/domain/authz"
	"github.com/homeroom-dev/homeroom/internal/domain/tenant"
)

// Store holds all tenant-scoped state behind a single RWMutex. Reads
// take the read lock; every mutation, including key rotation and
// lifecycle changes, takes the write lock so the key index and tenant
// state move together.
//
// Tenants and activities mutate in place, so reads return clones that
// stay coherent after the lock is released. Users and roles are
// replaced wholesale on Put and returned as stored.
type Store struct {
	mu sync.RWMutex

	tenants  map[string]*tenant.Tenant // tenant ID -> tenant
	keyIndex map[string]string         // auth key -> tenant ID

	users map[string]map[string]*authz.User // tenant ID -> email -> user
	roles map[string]map[string]authz.Role  // tenant ID -> role name -> role

	activities map[string]map[string]*activity.Activity // tenant ID -> activity name -> activity
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tenants:    make(map[string]*tenant.Tenant),
		keyIndex:   make(map[string]string),
		users:      make(map[string]map[string]*authz.User),
		roles:      make(map[string]map[string]authz.Role),
		activities: make(map[string]map[string]*activity.Activity),
	}
}
