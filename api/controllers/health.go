package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/rohanmehta-dev/vaanijya-backend/api/responses"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/config"
	apperrors "github.com/rohanmehta-dev/vaanijya-backend/pkg/errors"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
)

// Pinger mirrors the readiness probe surface of the backing stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Vaanijya-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Vaanijya-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					apperrors.Wrap(apperrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
