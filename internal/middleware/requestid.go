// Package middleware provides HTTP middleware for Homeroom.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/homeroom-dev/homeroom/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID is HTTP middleware that adopts a well-formed X-Request-ID
// from the request or generates a fresh one. The ID is stored in the
// context, set on the response header, and stamped on the active trace
// span so logs and traces correlate.
//
// Inbound IDs come from untrusted clients, so anything outside a narrow
// charset or length range is discarded rather than propagated into logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !wellFormedID(id) {
			id = generateID()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(attribute.String("request.id", id))
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// wellFormedID accepts 8 to 64 characters of [A-Za-z0-9._-].
func wellFormedID(id string) bool {
	if len(id) < 8 || len(id) > 64 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// generateID returns a 16-byte random hex string (32 chars).
func generateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
