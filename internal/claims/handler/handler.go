package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claim_intake_backend/internal/claims/service"
	"claim_intake_backend/internal/claims/transport"
	"claim_intake_backend/platform/httpkit"
	"claim_intake_backend/platform/validator"
)

// Handler handles HTTP requests for claims and damages.
type Handler struct {
	svc          *service.Service
	val          *validator.Validator
	defaultActor string
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidUserID    = "invalid user id"
	msgInvalidClaimID   = "invalid claim id"
	msgInvalidDamageID  = "invalid damage id"
)

// New creates a new claims handler.
func New(svc *service.Service, val *validator.Validator, defaultActor string) *Handler {
	return &Handler{svc: svc, val: val, defaultActor: defaultActor}
}

// ListUsers returns every policy holder.
// GET /api/v1/users
func (h *Handler) ListUsers(c *gin.Context) {
	result, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListPoliciesForUser returns the policies a user holds.
// GET /api/v1/users/:id/policies
func (h *Handler) ListPoliciesForUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidUserID, nil)
		return
	}

	result, err := h.svc.ListPoliciesForUser(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListClaims returns the claims overview, newest first.
// GET /api/v1/claims
func (h *Handler) ListClaims(c *gin.Context) {
	result, err := h.svc.ListClaims(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetClaim returns one claim.
// GET /api/v1/claims/:id
func (h *Handler) GetClaim(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidClaimID, nil)
		return
	}

	result, err := h.svc.GetClaim(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListClaimDamages returns a claim's damages.
// GET /api/v1/claims/:id/damages
func (h *Handler) ListClaimDamages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidClaimID, nil)
		return
	}

	result, err := h.svc.ListDamagesByClaim(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetDamage returns one damage.
// GET /api/v1/damages/:id
func (h *Handler) GetDamage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDamageID, nil)
		return
	}

	damage, err := h.svc.GetDamage(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, service.ToDamageResponse(damage))
}

// GetDamageTimeline returns a damage's audit timeline.
// GET /api/v1/damages/:id/timeline
func (h *Handler) GetDamageTimeline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDamageID, nil)
		return
	}

	result, err := h.svc.DamageTimeline(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ReviewDamage records an approval or refusal.
// POST /api/v1/damages/:id/review
func (h *Handler) ReviewDamage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDamageID, nil)
		return
	}
	var req transport.ReviewDamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.SubmitReview(c.Request.Context(), id, req, httpkit.ActorName(identity, h.defaultActor))
	if httpkit.HandleError(c, err) {
		return
	}
	if result.Queued {
		httpkit.JSON(c, http.StatusAccepted, result)
		return
	}
	httpkit.OK(c, result)
}
