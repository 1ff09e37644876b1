package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/stylinx-storefront/api/responses"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
)

// ReadinessChecker pings the infrastructure behind the storefront.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stylinx-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stylinx-Env", cfg.App.Env)
		if checker != nil {
			if err := checker.Ready(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency check failed"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
