package http

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	hrotel "github.com/homeroom-dev/homeroom/internal/adapter/otel"
	"github.com/homeroom-dev/homeroom/internal/domain/activity"
	"github.com/homeroom-dev/homeroom/internal/domain/authz"
	"github.com/homeroom-dev/homeroom/internal/domain/tenant"
	"github.com/homeroom-dev/homeroom/internal/middleware"
	"github.com/homeroom-dev/homeroom/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tenants    *service.TenantService
	Directory  *service.DirectoryService
	Activities *service.ActivityService
	Metrics    *hrotel.Metrics
}

// tenantFrom returns the request's tenant, writing a 401 when the
// resolver middleware did not run.
func tenantFrom(w http.ResponseWriter, r *http.Request) (*tenant.Tenant, bool) {
	t := middleware.TenantFromContext(r.Context())
	if t == nil {
		writeError(w, http.StatusUnauthorized, "tenant authentication required")
		return nil, false
	}
	return t, true
}

// checkAuthorization evaluates the strategy against the request's user
// and records the decision. An anonymous request fails every strategy
// that requires a user.
func (h *Handlers) checkAuthorization(r *http.Request, strategy authz.Strategy, resourceID string) bool {
	ctx, span := hrotel.StartAuthzSpan(r.Context(), strategy.Name(), resourceID)
	defer span.End()

	u := middleware.UserFromContext(ctx)
	allowed := strategy.Authorize(u, resourceID)

	if h.Metrics != nil {
		h.Metrics.AuthzDecisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("authz.strategy", strategy.Name()),
			attribute.Bool("authz.allowed", allowed),
		))
	}
	return allowed
}

// --- Activities ---

// ListActivities handles GET /api/v1/activities
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	t, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	list, err := h.Activities.List(r.Context(), t.ID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	out := make(map[string]*activity.Activity, len(list))
	for _, a := range list {
		out[a.Name] = a
	}
	writeJSON(w, http.StatusOK, out)
}

// SignUpForActivity handles POST /api/v1/activities/{name}/signup
func (h *Handlers) SignUpForActivity(w http.ResponseWriter, r *http.Request) {
	t, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	if !h.checkAuthorization(r, authz.NewRoleAuthorization("student", "teacher"), "") {
		writeError(w, http.StatusForbidden, "Only students and teachers can sign up for activities")
		return
	}

	name := urlParam(r, "name")
	email := r.URL.Query().Get("email")
	if !requireField(w, email, "email") {
		return
	}

	if err := h.Activities.SignUp(r.Context(), t.ID, name, email); err != nil {
		writeDomainError(w, r, err, "Activity not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Signed up %s for %s", email, name),
	})
}

// UnregisterFromActivity handles DELETE /api/v1/activities/{name}/unregister
func (h *Handlers) UnregisterFromActivity(w http.ResponseWriter, r *http.Request) {
	t, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	if !h.checkAuthorization(r, authz.NewRoleAuthorization("teacher", "admin"), "") {
		writeError(w, http.StatusForbidden, "Only teachers and administrators can unregister students")
		return
	}

	name := urlParam(r, "name")
	email := r.URL.Query().Get("email")
	if !requireField(w, email, "email") {
		return
	}

	if err := h.Activities.Unregister(r.Context(), t.ID, name, email); err != nil {
		writeDomainError(w, r, err, "Activity not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Unregistered %s from %s", email, name),
	})
}

// --- Identity and roles ---

// GetUserRoles handles GET /api/v1/user/roles
func (h *Handlers) GetUserRoles(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"message":       "No user authenticated. Include X-User-Email header to authenticate",
		})
		return
	}

	perms := u.Permissions()
	sort.Strings(perms)
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"email":         u.Email,
		"name":          u.Name,
		"roles":         u.RoleNames(),
		"permissions":   perms,
	})
}

// roleView is the wire shape of a role in role listings.
type roleView struct {
	Label       string   `json:"label"`
	Private     bool     `json:"private"`
	Permissions []string `json:"permissions"`
}

// ListRoles handles GET /api/v1/roles
func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	t, ok := tenantFrom(w, r)
	if !ok {
		return
	}
	if !h.checkAuthorization(r, authz.NewRoleAuthorization("admin"), "") {
		writeError(w, http.StatusForbidden, "Only administrators can view roles")
		return
	}

	roles, err := h.Directory.ListRoles(r.Context(), t.ID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	out := make(map[string]roleView, len(roles))
	for _, role := range roles {
		perms := role.PermissionList()
		sort.Strings(perms)
		out[role.Name] = roleView{Label: role.Label, Private: role.Private, Permissions: perms}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Tenant administration ---

// tenantCreateRequest is the wire shape for provisioning a tenant.
type tenantCreateRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// tenantView is the wire shape of a tenant in admin responses. Auth
// keys are never embedded; admins fetch them explicitly per tenant.
type tenantView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toTenantView(t *tenant.Tenant) tenantView {
	return tenantView{ID: t.ID, Name: t.Name, Domain: t.Domain, Active: t.Active, CreatedAt: t.CreatedAt}
}

// ListTenants handles GET /api/v1/admin/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Tenants.List(r.Context())
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	out := make([]tenantView, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantView(t))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTenant handles POST /api/v1/admin/tenants
func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenantCreateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.Tenants.Create(r.Context(), req.Name, req.Domain)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}

	// The initial key is only ever returned here; it is not readable
	// again in full except through the keys listing.
	resp := map[string]any{"tenant": toTenantView(t)}
	if k := t.ValidAuthKey(time.Now().UTC()); k != nil {
		resp["auth_key"] = k
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetTenant handles GET /api/v1/admin/tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	t, err := h.Tenants.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, toTenantView(t))
}

// DeactivateTenant handles POST /api/v1/admin/tenants/{id}/deactivate
func (h *Handlers) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if err := h.Tenants.Deactivate(r.Context(), id); err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	t, err := h.Tenants.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, toTenantView(t))
}

// ReactivateTenant handles POST /api/v1/admin/tenants/{id}/reactivate
func (h *Handlers) ReactivateTenant(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	t, minted, err := h.Tenants.Reactivate(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}

	resp := map[string]any{"tenant": toTenantView(t)}
	if minted != nil {
		resp["auth_key"] = minted
	}
	writeJSON(w, http.StatusOK, resp)
}

// generateKeyRequest optionally overrides the key lifetime.
type generateKeyRequest struct {
	TTL string `json:"ttl,omitempty"`
}

// GenerateAuthKey handles POST /api/v1/admin/tenants/{id}/keys
func (h *Handlers) GenerateAuthKey(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	var ttl time.Duration
	if r.ContentLength > 0 {
		req, ok := readJSON[generateKeyRequest](w, r)
		if !ok {
			return
		}
		if req.TTL != "" {
			d, err := time.ParseDuration(req.TTL)
			if err != nil || d <= 0 {
				writeError(w, http.StatusBadRequest, "ttl must be a positive duration like 720h")
				return
			}
			ttl = d
		}
	}

	k, err := h.Tenants.GenerateKey(r.Context(), id, ttl)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusCreated, k)
}

// ListAuthKeys handles GET /api/v1/admin/tenants/{id}/keys
func (h *Handlers) ListAuthKeys(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	keys, err := h.Tenants.ListKeys(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// RevokeAuthKey handles DELETE /api/v1/admin/tenants/{id}/keys/{key}
func (h *Handlers) RevokeAuthKey(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	key := urlParam(r, "key")
	if err := h.Tenants.RevokeKey(r.Context(), id, key); err != nil {
		writeDomainError(w, r, err, "key not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "auth key revoked"})
}
