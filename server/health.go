package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

const healthCheckTimeout = 3 * time.Second

// HealthResponse is the body of /health. Checks lists every configured
// store with "ok" or its error text.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health pings each configured store. Any failure answers 424.
func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		resp := HealthResponse{Status: "ok"}
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := s.checks[name].CheckHealth(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("check", name).Msg("health check failed")
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Cache-Control", "no-store")
		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusFailedDependency
		}
		writeJSON(w, status, resp)
	}
}
