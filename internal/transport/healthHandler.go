package transport

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/cuidador-digital/backend/internal/service"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db      *sql.DB
	cache   func(ctx context.Context) error // nil when the cache is not configured
	gateway service.MessageGateway
}

func NewHealthHandler(db *sql.DB, cachePing func(ctx context.Context) error, gateway service.MessageGateway) *HealthHandler {
	return &HealthHandler{db: db, cache: cachePing, gateway: gateway}
}

// Check reports liveness plus the state of each dependency. The
// endpoint stays 200 unless the database is unreachable.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	components := gin.H{}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		components["database"] = "unreachable: " + err.Error()
		healthy = false
	} else {
		components["database"] = "ok"
	}

	if h.cache == nil {
		components["cache"] = "disabled"
	} else if err := h.cache(ctx); err != nil {
		components["cache"] = "unreachable: " + err.Error()
	} else {
		components["cache"] = "ok"
	}

	if h.gateway.Enabled() {
		components["whatsapp"] = "configured"
	} else {
		components["whatsapp"] = "disabled"
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":     state,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}
