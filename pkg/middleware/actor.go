package middleware

import (
	"context"
	"net/http"
	"strconv"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

// ActorIDKey is the context key for the acting member id.
const ActorIDKey ContextKey = "actor_id"

// ActorMiddleware resolves the acting member from the X-Member-ID header.
// The service runs behind a trusted front end that authenticates members;
// requests without the header fall back to member 1 for local development.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := int64(1)
		if raw := r.Header.Get("X-Member-ID"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				actorID = id
			}
		}
		ctx := context.WithValue(r.Context(), ActorIDKey, actorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetActorID extracts the acting member id from the request context.
func GetActorID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ActorIDKey).(int64)
	return id, ok
}
