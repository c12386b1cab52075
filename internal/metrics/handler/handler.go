package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claim_intake_backend/internal/metrics/service"
	"claim_intake_backend/platform/httpkit"
)

// Handler handles HTTP requests for the metrics.
type Handler struct {
	svc *service.Service
}

// New creates a new metrics handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Portfolio returns the figures shown above the claims list.
// GET /api/v1/metrics
func (h *Handler) Portfolio(c *gin.Context) {
	result, err := h.svc.Portfolio(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ClaimFigures returns the figures of one claim.
// GET /api/v1/metrics/claims/:id
func (h *Handler) ClaimFigures(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid claim id", nil)
		return
	}

	result, err := h.svc.ForClaim(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
