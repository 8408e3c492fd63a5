package authz

// User is an identity within a single tenant. Roles are ordered and
// duplicate-free; OwnerOf holds the IDs of resources the user owns.
type User struct {
	Email   string              `json:"email"`
	Name    string              `json:"name"`
	Roles   []Role              `json:"roles"`
	OwnerOf map[string]struct{} `json:"-"`
}

// NewUser creates a user with the given roles.
func NewUser(email, name string, roles ...Role) *User {
	u := &User{
		Email:   email,
		Name:    name,
		OwnerOf: make(map[string]struct{}),
	}
	for _, r := range roles {
		u.AddRole(r)
	}
	return u
}

// AddRole appends a role. Adding a role the user already has (by name)
// is a no-op, preserving order of first addition.
func (u *User) AddRole(role Role) {
	if u.HasRole(role.Name) {
		return
	}
	u.Roles = append(u.Roles, role)
}

// RemoveRole removes the role with the given name, preserving the order
// of the remaining roles.
func (u *User) RemoveRole(name string) {
	for i, r := range u.Roles {
		if r.Name == name {
			u.Roles = append(u.Roles[:i], u.Roles[i+1:]...)
			return
		}
	}
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the named roles.
func (u *User) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if u.HasRole(n) {
			return true
		}
	}
	return false
}

// HasPermission reports whether any of the user's roles grants the permission.
func (u *User) HasPermission(permission string) bool {
	for _, r := range u.Roles {
		if r.HasPermission(permission) {
			return true
		}
	}
	return false
}

// GrantOwnership records that the user owns the resource.
func (u *User) GrantOwnership(resourceID string) {
	if u.OwnerOf == nil {
		u.OwnerOf = make(map[string]struct{})
	}
	u.OwnerOf[resourceID] = struct{}{}
}

// OwnsResource reports whether the user owns the resource.
func (u *User) OwnsResource(resourceID string) bool {
	_, ok := u.OwnerOf[resourceID]
	return ok
}

// RoleNames returns the user's role names in role order.
func (u *User) RoleNames() []string {
	out := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		out[i] = r.Name
	}
	return out
}

// Permissions returns the union of permissions across all roles.
// Order is unspecified.
func (u *User) Permissions() []string {
	set := make(map[string]struct{})
	for _, r := range u.Roles {
		for p := range r.Permissions {
			set[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	return out
}
