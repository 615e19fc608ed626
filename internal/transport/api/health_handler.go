package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = time.Second

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Index GET RouteGroup + HealthRoute. Возвращает 503 если хотя бы одна зависимость недоступна.
func (h *HealthHandler) Index(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, healthCheckTimeout)
	defer cancel()

	response := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		response.Checks = make(map[string]string, len(h.checks))
	}
	for name, pinger := range h.checks {
		if err := pinger.Ping(ctx); err != nil {
			_ = c.Error(err)
			response.Checks[name] = "unavailable"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}

	c.JSON(status, response)
}
