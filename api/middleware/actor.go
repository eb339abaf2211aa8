package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/api/responses"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// ActorIDHeader names the header carrying the acting user's id. There is no
// authentication in this service; callers identify themselves explicitly.
const ActorIDHeader = "X-Actor-Id"

type actorContextKey struct{}

// Actor extracts the acting user id from the request header when present
// and rejects malformed values. Routes that mutate state fetch it with
// RequireActor.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(ActorIDHeader)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			actorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id must be a uuid"))
				return
			}

			ctx := context.WithValue(r.Context(), actorContextKey{}, actorID)
			if logg != nil {
				ctx = logg.WithActorID(ctx, actorID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the acting user id, if one was supplied.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	actorID, ok := ctx.Value(actorContextKey{}).(uuid.UUID)
	return actorID, ok
}

// RequireActor returns the acting user id or a validation error for
// operations that must be attributed.
func RequireActor(ctx context.Context) (uuid.UUID, error) {
	actorID, ok := ActorFromContext(ctx)
	if !ok || actorID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "X-Actor-Id header is required")
	}
	return actorID, nil
}
