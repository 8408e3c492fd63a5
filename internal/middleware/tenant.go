package middleware

import (
	"context"
	"net/http"

	"github.com/homeroom-dev/homeroom/internal/domain/tenant"
)

const (
	headerTenantKey    = "X-Tenant-Key"
	headerTenantDomain = "X-Tenant-Domain"
	headerTenantID     = "X-Tenant-ID"
)

type tenantCtxKey struct{}

// TenantResolver looks up tenants during request resolution.
type TenantResolver interface {
	ResolveByKey(ctx context.Context, key string) (*tenant.Tenant, error)
	ResolveByDomain(ctx context.Context, domain string) (*tenant.Tenant, error)
	ResolveByID(ctx context.Context, id string) (*tenant.Tenant, error)
}

// ResolveTenant returns middleware that establishes the tenant for each
// request and stores it in the request context. Resolution is attempted in
// priority order, each stage falling through to the next on a miss:
//
//  1. X-Tenant-Key header, looked up against the auth key index.
//  2. X-Tenant-Domain header, falling back to Host, port stripped. The
//     explicit header wins so clients reaching the server by address
//     (localhost, a load balancer IP) can still name their tenant.
//  3. X-Tenant-ID header, a direct unverified lookup.
//
// Requests with no resolvable tenant get 401. Requests that resolve to a
// deactivated tenant get 403; only the ID stage can reach one, since key
// and domain lookups never return inactive tenants.
//
// Paths listed in exempt skip resolution entirely.
func ResolveTenant(resolver TenantResolver, exempt map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			t := extractTenant(r, resolver)
			if t == nil {
				http.Error(w, `{"error":"tenant authentication required: provide X-Tenant-Key or Host header"}`, http.StatusUnauthorized)
				return
			}
			if !t.Active {
				http.Error(w, `{"error":"tenant is inactive"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractTenant runs the resolution chain. Lookup errors are treated as
// misses so a later stage can still succeed.
func extractTenant(r *http.Request, resolver TenantResolver) *tenant.Tenant {
	ctx := r.Context()

	if key := r.Header.Get(headerTenantKey); key != "" {
		if t, err := resolver.ResolveByKey(ctx, key); err == nil {
			return t
		}
	}

	host := r.Header.Get(headerTenantDomain)
	if host == "" {
		host = r.Host
	}
	if host != "" {
		if t, err := resolver.ResolveByDomain(ctx, host); err == nil {
			return t
		}
	}

	if id := r.Header.Get(headerTenantID); id != "" {
		if t, err := resolver.ResolveByID(ctx, id); err == nil {
			return t
		}
	}

	return nil
}

// TenantFromContext returns the tenant resolved for this request, or nil
// when resolution has not run (fully isolated per request).
func TenantFromContext(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(tenantCtxKey{}).(*tenant.Tenant)
	return t
}

// TenantCtxKeyForTest returns the context key used for storing the tenant.
// Exported only for use in tests that need to inject a tenant into the context.
func TenantCtxKeyForTest() any {
	return tenantCtxKey{}
}
