package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
)

const (
	OwnerIDHeader = "X-Owner-Id"
	RoleHeader    = "X-Role"
)

type actorKey struct{}

// Identity attaches the caller named by the identity headers to the request context.
// Requests without an owner id pass through anonymously.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := strings.TrimSpace(r.Header.Get(OwnerIDHeader))
		if ownerID == "" {
			next.ServeHTTP(w, r)
			return
		}

		role := domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(RoleHeader))))
		if role == "" {
			role = domain.RoleCustomer
		}
		if _, err := uuid.Parse(ownerID); err != nil || !role.IsValid() {
			logger.Warn("identity headers rejected", logger.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
				"role":   string(role),
			})
			deny(w, http.StatusUnauthorized, "unauthorized", "invalid identity headers")
			return
		}

		actor := domain.Actor{OwnerID: ownerID, Role: role}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
