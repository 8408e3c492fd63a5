package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homeroom-dev/homeroom/internal/domain/authz"
	"github.com/homeroom-dev/homeroom/internal/middleware"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Activities
		r.Get("/activities", h.ListActivities)
		r.Post("/activities/{name}/signup", h.SignUpForActivity)
		r.Delete("/activities/{name}/unregister", h.UnregisterFromActivity)

		// Identity and roles
		r.Get("/user/roles", h.GetUserRoles)
		r.Get("/roles", h.ListRoles)

		// Tenant administration (admin only)
		r.Route("/admin/tenants", func(r chi.Router) {
			r.Use(middleware.Require(authz.NewRoleAuthorization("admin")))
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}", h.GetTenant)
			r.Post("/{id}/deactivate", h.DeactivateTenant)
			r.Post("/{id}/reactivate", h.ReactivateTenant)
			r.Get("/{id}/keys", h.ListAuthKeys)
			r.Post("/{id}/keys", h.GenerateAuthKey)
			r.Delete("/{id}/keys/{key}", h.RevokeAuthKey)
		})
	})
}
