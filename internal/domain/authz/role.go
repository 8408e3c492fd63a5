// Package authz defines the role, user, and authorization strategy model.
package authz

// Role groups a named set of permissions. Private roles are hidden from
// non-admin listings.
type Role struct {
	Name        string              `json:"name"`
	Label       string              `json:"label"`
	Private     bool                `json:"private"`
	Permissions map[string]struct{} `json:"-"`
}

// NewRole creates a role with the given permission set.
func NewRole(name, label string, private bool, permissions ...string) Role {
	r := Role{
		Name:        name,
		Label:       label,
		Private:     private,
		Permissions: make(map[string]struct{}, len(permissions)),
	}
	for _, p := range permissions {
		r.Permissions[p] = struct{}{}
	}
	return r
}

// AddPermission adds a permission to the role.
func (r *Role) AddPermission(permission string) {
	if r.Permissions == nil {
		r.Permissions = make(map[string]struct{})
	}
	r.Permissions[permission] = struct{}{}
}

// RemovePermission removes a permission from the role. Removing an
// absent permission is a no-op.
func (r *Role) RemovePermission(permission string) {
	delete(r.Permissions, permission)
}

// HasPermission reports whether the role grants the permission.
func (r *Role) HasPermission(permission string) bool {
	_, ok := r.Permissions[permission]
	return ok
}

// PermissionList returns the role's permissions as a slice. Order is
// unspecified.
func (r *Role) PermissionList() []string {
	out := make([]string, 0, len(r.Permissions))
	for p := range r.Permissions {
		out = append(out, p)
	}
	return out
}
