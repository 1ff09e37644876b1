package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stylinx-storefront/api/responses"
	"github.com/angelmondragon/stylinx-storefront/api/validators"
	"github.com/angelmondragon/stylinx-storefront/internal/identity"
	"github.com/angelmondragon/stylinx-storefront/internal/session"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
)

// SessionService is the authentication surface of the storefront.
type SessionService interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, form session.LoginForm) (*identity.User, error)
	Signup(ctx context.Context, form session.SignupForm) (*identity.User, error)
	Logout(ctx context.Context) error
}

// SessionFetch reports the current authentication state.
func SessionFetch(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Snapshot())
	}
}

// AuthLogin signs in with email and password. Form messages come from the session
// package, so the body is decoded without struct validation.
func AuthLogin(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form session.LoginForm
		if err := validators.DecodeJSONBodyRaw(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Login(r.Context(), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"user": user})
	}
}

func AuthSignup(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form session.SignupForm
		if err := validators.DecodeJSONBodyRaw(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Signup(r.Context(), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"user": user})
	}
}

func AuthLogout(svc SessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
