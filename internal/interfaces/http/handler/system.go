package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/safework/backend/internal/infrastructure/event"
)

// Pinger checks a dependency's liveness
type Pinger interface {
	Ping() error
}

// SystemHandler exposes health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db          Pinger
	broadcaster *event.Broadcaster
	version     string
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(db Pinger, broadcaster *event.Broadcaster, version string) *SystemHandler {
	return &SystemHandler{
		db:          db,
		broadcaster: broadcaster,
		version:     version,
	}
}

// RegisterRoutes registers system endpoints on the root engine
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}

// Health reports process liveness
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready reports whether dependencies are reachable
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"reason": "database unreachable",
			})
			return
		}
	}

	h.Success(c, gin.H{
		"status":         "ready",
		"stream_clients": h.broadcaster.ClientCount(),
	})
}
