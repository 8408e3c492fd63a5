package middleware

import (
	"net/http"

	"github.com/homeroom-dev/homeroom/internal/domain/authz"
)

// Require returns middleware that rejects requests whose user fails the
// given authorization strategy. Anonymous requests get 401; identified
// users that fail the check get 403.
func Require(strategy authz.Strategy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			if !strategy.Authorize(u, "") {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny returns middleware that passes requests satisfying at least
// one of the given strategies.
func RequireAny(strategies ...authz.Strategy) func(http.Handler) http.Handler {
	composer := authz.NewAuthorizationContext(strategies...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			if !composer.CheckAny(u, "") {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
