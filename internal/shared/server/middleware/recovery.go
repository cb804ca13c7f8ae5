package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/shared/metrics"
	"steam-insights-backend/internal/shared/server/respond"
	"steam-insights-backend/internal/shared/telemetry"
)

// Recovery turns handler panics into an INTERNAL_ERROR envelope. Nothing is
// written when the handler already started the response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncPanicRecovered()
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
				"app_id":     c.Param("appId"),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected server error", nil)
			c.Abort()
		}()
		c.Next()
	}
}
