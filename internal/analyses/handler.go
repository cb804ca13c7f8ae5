package analyses

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc   *Service
	polls *pollLimiter
}

// NewHandler constructs a Handler. pollWindow throttles status polling per
// client; zero means one second.
func NewHandler(svc *Service, pollWindow time.Duration) *Handler {
	return &Handler{Svc: svc, polls: newPollLimiter(pollWindow, nil)}
}

// RegisterRoutes attaches read routes to rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analyses/kinds", h.listKinds)
	rg.GET("/analyses/:id", h.getAnalysis)
	rg.GET("/apps/:appId/analyses", h.listAnalyses)
}

// RegisterLLMRoutes attaches the routes that start model calls, so callers
// can put them behind a stricter rate limit.
func (h *Handler) RegisterLLMRoutes(rg *gin.RouterGroup) {
	rg.POST("/apps/:appId/analyses/:kind", h.startAnalysis)
}

func (h *Handler) startAnalysis(c *gin.Context) {
	var opts RunOptions
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return
	}
	ctx := WithRequestID(c.Request.Context(), c.GetString("requestId"))

	run, err := h.Svc.Start(ctx, c.Param("appId"), c.Param("kind"), opts)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAppID):
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "appId must be numeric", nil)
		case errors.Is(err, ErrUnknownKind):
			respond.Error(c, http.StatusNotFound, "UNKNOWN_KIND", "unknown analysis kind", []map[string]string{
				{"field": "kind", "issue": "must be one of the kinds listed at /analyses/kinds"},
			})
		case errors.Is(err, ErrInvalidOptions):
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to start analysis", nil)
		}
		return
	}

	if run.Status == StatusCompleted {
		respond.OK(c, run)
		return
	}
	respond.Accepted(c, gin.H{
		"id":     run.ID,
		"status": run.Status,
		"cached": run.Cached,
	})
}

func (h *Handler) getAnalysis(c *gin.Context) {
	id := c.Param("id")
	if !h.polls.Allow(c.ClientIP(), id) {
		c.Header("Retry-After", strconv.Itoa(h.polls.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "polling too fast", nil)
		return
	}

	run, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "NOT_FOUND", "analysis not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to fetch analysis", nil)
		return
	}
	respond.OK(c, run)
}

func (h *Handler) listAnalyses(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	runs, err := h.Svc.List(c.Request.Context(), c.Param("appId"), limit, offset)
	if err != nil {
		if errors.Is(err, ErrInvalidAppID) {
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "appId must be numeric", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list analyses", nil)
		return
	}

	items := make([]gin.H, 0, len(runs))
	for _, r := range runs {
		items = append(items, gin.H{
			"id":        r.ID,
			"kind":      r.Kind,
			"status":    r.Status,
			"cached":    r.Cached,
			"errorCode": r.ErrorCode,
			"createdAt": r.CreatedAt,
		})
	}
	respond.OK(c, items)
}

func (h *Handler) listKinds(c *gin.Context) {
	kinds := Kinds()
	out := make([]gin.H, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, gin.H{
			"kind":        k,
			"cacheOp":     k.CacheOp(),
			"usesReviews": k.UsesReviews(),
		})
	}
	respond.OK(c, out)
}

func queryInt(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
