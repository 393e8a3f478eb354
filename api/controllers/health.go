package controllers

import (
	"net/http"

	"github.com/yourwae/fastget-backend/api/responses"
	"github.com/yourwae/fastget-backend/internal/health"
	"github.com/yourwae/fastget-backend/pkg/config"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FastGet-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every registered dependency and answers 503 when any is down.
func HealthReady(cfg *config.Config, checker *health.Checker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FastGet-Env", cfg.App.Env)
		report := checker.Ready(r.Context())
		if !report.Ready {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(report.Checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": report.Checks})
	}
}
