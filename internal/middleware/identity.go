package middleware

import (
	"context"
	"net/http"

	"github.com/homeroom-dev/homeroom/internal/domain/authz"
)

const headerUserEmail = "X-User-Email"

type userCtxKey struct{}

// UserDirectory looks up users within a tenant.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, tenantID, email string) (*authz.User, error)
}

// Identity returns middleware that attaches the requesting user to the
// context, looked up by the X-User-Email header within the resolved tenant.
// A missing or unknown email leaves the user nil; anonymous requests are
// legitimate and the route guards decide what they may do.
func Identity(dir UserDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := r.Header.Get(headerUserEmail)
			t := TenantFromContext(r.Context())
			if email == "" || t == nil {
				next.ServeHTTP(w, r)
				return
			}

			u, err := dir.GetUserByEmail(r.Context(), t.ID, email)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user identified for this request, or nil for
// anonymous requests.
func UserFromContext(ctx context.Context) *authz.User {
	u, _ := ctx.Value(userCtxKey{}).(*authz.User)
	return u
}

// UserCtxKeyForTest returns the context key used for storing the user.
// Exported only for use in tests that need to inject a user into the context.
func UserCtxKeyForTest() any {
	return userCtxKey{}
}
