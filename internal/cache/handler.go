package cache

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/shared/server/respond"
	"steam-insights-backend/internal/shared/telemetry"
)

// Handler exposes cache inspection and maintenance endpoints.
type Handler struct {
	cache *Cache
}

func NewHandler(c *Cache) *Handler {
	return &Handler{cache: c}
}

// RegisterRoutes wires cache routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/cache/stats", h.Stats)
	r.POST("/cache/sweep", h.Sweep)
	r.DELETE("/cache", h.Clear)
	r.DELETE("/cache/:op/:subject", h.Remove)
}

func (h *Handler) Stats(c *gin.Context) {
	respond.OK(c, h.cache.Stats())
}

func (h *Handler) Sweep(c *gin.Context) {
	removed := h.cache.Sweep()
	telemetry.Info("cache.sweep", map[string]any{
		"removed":    removed,
		"request_id": c.GetString("requestId"),
		"trigger":    "http",
	})
	respond.OK(c, gin.H{"removed": removed, "cacheSize": h.cache.Len()})
}

func (h *Handler) Clear(c *gin.Context) {
	removed := h.cache.Clear()
	telemetry.Info("cache.clear", map[string]any{
		"removed":    removed,
		"request_id": c.GetString("requestId"),
	})
	respond.OK(c, gin.H{"removed": removed})
}

// Remove drops the entry stored under the empty option set. With ?all=true
// every option variant for the op and subject is removed.
func (h *Handler) Remove(c *gin.Context) {
	op := OpType(c.Param("op"))
	subject := c.Param("subject")
	if _, known := DefaultTTLs()[op]; !known {
		respond.Error(c, http.StatusBadRequest, "UNKNOWN_OPERATION", "unknown cache operation", gin.H{"op": string(op)})
		return
	}

	removed := 0
	if c.Query("all") == "true" {
		removed = h.cache.RemoveSubject(op, subject)
	} else if h.cache.Remove(op, subject, NoOptions) {
		removed = 1
	}
	respond.OK(c, gin.H{"removed": removed})
}
