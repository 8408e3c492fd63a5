package authz

// Strategy decides whether a user may act on a resource. Implementations
// are total pure functions: they never error and never panic, including
// on a nil user.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Authorize reports whether the user passes. resourceID may be empty
	// for strategies that do not inspect it.
	Authorize(u *User, resourceID string) bool
}

// RoleAuthorization passes when the user holds ANY of the required roles.
// A nil user never passes.
type RoleAuthorization struct {
	RequiredRoles []string
}

// NewRoleAuthorization builds a role-based strategy.
func NewRoleAuthorization(roles ...string) RoleAuthorization {
	return RoleAuthorization{RequiredRoles: roles}
}

func (RoleAuthorization) Name() string { return "role_based" }

// Authorize reports whether the user has any required role.
func (s RoleAuthorization) Authorize(u *User, _ string) bool {
	if u == nil {
		return false
	}
	return u.HasAnyRole(s.RequiredRoles...)
}

// OwnershipAuthorization passes when the user owns the resource.
// A nil user or an empty resource ID never passes.
type OwnershipAuthorization struct{}

func (OwnershipAuthorization) Name() string { return "ownership_based" }

// Authorize reports whether the user owns resourceID.
func (OwnershipAuthorization) Authorize(u *User, resourceID string) bool {
	if u == nil || resourceID == "" {
		return false
	}
	return u.OwnsResource(resourceID)
}

// LimitedAccessAuthorization restricts access to an allow-list of roles.
// The decision procedure matches RoleAuthorization; the distinct name
// lets callers separate "has the role" from "is on the access list" in
// audit output.
type LimitedAccessAuthorization struct {
	AllowedRoles []string
}

// NewLimitedAccessAuthorization builds a limited-access strategy.
func NewLimitedAccessAuthorization(roles ...string) LimitedAccessAuthorization {
	return LimitedAccessAuthorization{AllowedRoles: roles}
}

func (LimitedAccessAuthorization) Name() string { return "limited_access" }

// Authorize reports whether the user has any allowed role.
func (s LimitedAccessAuthorization) Authorize(u *User, _ string) bool {
	if u == nil {
		return false
	}
	return u.HasAnyRole(s.AllowedRoles...)
}

// AuthorizationExclusion passes when the user holds NONE of the excluded
// roles. A nil user passes: the exclusion only bars known members of the
// excluded roles, it is not an authentication check.
type AuthorizationExclusion struct {
	ExcludedRoles []string
}

// NewAuthorizationExclusion builds an exclusion strategy.
func NewAuthorizationExclusion(roles ...string) AuthorizationExclusion {
	return AuthorizationExclusion{ExcludedRoles: roles}
}

func (AuthorizationExclusion) Name() string { return "exclusion" }

// Authorize reports whether the user is outside all excluded roles.
func (s AuthorizationExclusion) Authorize(u *User, _ string) bool {
	if u == nil {
		return true
	}
	return !u.HasAnyRole(s.ExcludedRoles...)
}

// AuthorizationContext composes strategies for a single decision point.
type AuthorizationContext struct {
	strategies []Strategy
}

// NewAuthorizationContext builds a composer over the given strategies.
func NewAuthorizationContext(strategies ...Strategy) *AuthorizationContext {
	return &AuthorizationContext{strategies: strategies}
}

// Add appends a strategy and returns the context for chaining.
func (c *AuthorizationContext) Add(s Strategy) *AuthorizationContext {
	c.strategies = append(c.strategies, s)
	return c
}

// Check passes when ALL strategies pass. An empty context passes.
func (c *AuthorizationContext) Check(u *User, resourceID string) bool {
	for _, s := range c.strategies {
		if !s.Authorize(u, resourceID) {
			return false
		}
	}
	return true
}

// CheckAny passes when ANY strategy passes. An empty context passes.
func (c *AuthorizationContext) CheckAny(u *User, resourceID string) bool {
	if len(c.strategies) == 0 {
		return true
	}
	for _, s := range c.strategies {
		if s.Authorize(u, resourceID) {
			return true
		}
	}
	return false
}

// Check is a one-shot single-strategy decision.
func Check(u *User, s Strategy, resourceID string) bool {
	return s.Authorize(u, resourceID)
}

// CheckAll passes when every strategy passes. No strategies passes.
func CheckAll(u *User, resourceID string, strategies ...Strategy) bool {
	return NewAuthorizationContext(strategies...).Check(u, resourceID)
}

// CheckAny passes when any strategy passes. No strategies passes.
func CheckAny(u *User, resourceID string, strategies ...Strategy) bool {
	return NewAuthorizationContext(strategies...).CheckAny(u, resourceID)
}
