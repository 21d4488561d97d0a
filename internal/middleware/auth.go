package middleware

import (
	"context"
	"net/http"
	"strings"
)

// OwnerHeader carries the authenticated user's opaque identifier. Identity
// verification itself happens upstream (the auth gateway validates the
// session token and injects this header); this middleware only enforces
// that the header is present and makes it available on the context.
const OwnerHeader = "X-User-ID"

type ownerKeyType struct{}

var ownerKey ownerKeyType

// RequireOwner rejects requests without an authenticated-user header with
// 401 and stores the owner ID on the request context for handlers.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"unauthenticated","message":"authentication required"}}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}

// WithOwner returns a context carrying the owner ID. Exposed for tests.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// Owner returns the authenticated owner ID from the context, or "" when
// the request did not pass through RequireOwner.
func Owner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}
