package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/bobmcallan/stock-compare/internal/common"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler reports whether the server and its dependencies are usable.
type HealthHandler struct {
	logger  *common.Logger
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a health handler running checks on every request.
func NewHealthHandler(logger *common.Logger, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{logger: logger, checks: checks, timeout: 2 * time.Second}
}

// ServeHTTP handles GET /api/health. Any failing check turns the status to
// "degraded" with 503.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			results[c.Name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			h.logger.Warn().Str("check", c.Name).Err(err).Msg("health check failed")
			continue
		}
		results[c.Name] = "ok"
	}

	WriteJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
	})
}
