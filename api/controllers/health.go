package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/harborline/stockroom-backend/api/responses"
	"github.com/harborline/stockroom-backend/pkg/config"
	pkgerrors "github.com/harborline/stockroom-backend/pkg/errors"
	"github.com/harborline/stockroom-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stockroom-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when every backing dependency answers a
// ping within the probe deadline.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Stockroom-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		failed := false

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				checks["db"] = "down"
				failed = true
			} else {
				checks["db"] = "up"
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				checks["redis"] = "down"
				failed = true
			} else {
				checks["redis"] = "up"
			}
		}

		if failed {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(checks)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
