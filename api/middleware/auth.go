package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stylinx-storefront/api/responses"
	"github.com/angelmondragon/stylinx-storefront/internal/session"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
)

// SessionReader exposes the current authentication state.
type SessionReader interface {
	Snapshot() session.Snapshot
}

// RequireSession only lets requests through while a user is signed in, the way the app
// only shows the shop screens to authenticated users.
func RequireSession(sess SessionReader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := sess.Snapshot()
			if snap.State == session.StateLoading {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "session is still loading"))
				return
			}
			if !snap.Authenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, snap.User.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, snap.User.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
