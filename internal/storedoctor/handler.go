package storedoctor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"steam-insights-backend/internal/shared/server/respond"
	"steam-insights-backend/internal/steam"
)

const maxDraftUploadBytes = 10 << 20

// Handler exposes Store Doctor endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/apps/:appId/store-doctor", h.Diagnose)
	r.POST("/store-doctor/draft", h.DiagnoseDraft)
}

func (h *Handler) Diagnose(c *gin.Context) {
	d, err := h.svc.Diagnose(c.Request.Context(), c.Param("appId"), c.Query("lang"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAppID):
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "appId must be numeric", nil)
		case errors.Is(err, steam.ErrAppNotFound):
			respond.Error(c, http.StatusNotFound, "NOT_FOUND", "app not found on Steam", nil)
		case errors.Is(err, steam.ErrUpstream):
			respond.Error(c, http.StatusBadGateway, "UPSTREAM_ERROR", "Steam is unavailable", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "diagnosis failed", nil)
		}
		return
	}
	respond.OK(c, d)
}

// DiagnoseDraft accepts multipart form data: a "listing" JSON field and an
// optional "description" file.
func (h *Handler) DiagnoseDraft(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDraftUploadBytes)

	var listing Listing
	if err := json.Unmarshal([]byte(c.PostForm("listing")), &listing); err != nil {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "listing must be a JSON object", nil)
		return
	}
	draft := Draft{Listing: listing, Language: c.PostForm("lang")}

	if fh, err := c.FormFile("description"); err == nil {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "description file unreadable", nil)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "description file unreadable", nil)
			return
		}
		draft.Description = data
		draft.FileName = fh.Filename
		draft.MimeType = fh.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) {
		respond.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid multipart form", nil)
		return
	}

	d, err := h.svc.DiagnoseDraft(c.Request.Context(), draft)
	if err != nil {
		if errors.Is(err, ErrInvalidDraft) {
			respond.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "diagnosis failed", nil)
		return
	}
	respond.OK(c, d)
}
