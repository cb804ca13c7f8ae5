package blueocean

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/shared/server/respond"
	"steam-insights-backend/internal/steam"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/market/blue-ocean", h.Analyze)
}

type analyzeRequest struct {
	Tags []string `json:"tags"`
}

func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "body must be {\"tags\": [...]}", nil)
		return
	}
	score, err := h.svc.Analyze(c.Request.Context(), req.Tags)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTags):
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.Is(err, steam.ErrUpstream):
			respond.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", "SteamSpy is unavailable", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "market analysis failed", nil)
		}
		return
	}
	respond.OK(c, score)
}
