package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/pkg/config"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

const envHeader = "X-EstatePay-Env"

// Pinger is satisfied by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each dependency with a short deadline and reports
// per-dependency status. Nil pingers are skipped so the API can run
// without redis in dev.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		ready := true
		for name, dep := range deps {
			if dep == nil {
				status[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				status[name] = "down"
				ready = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "health.dependency_down", err)
				}
				continue
			}
			status[name] = "up"
		}

		if !ready {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
