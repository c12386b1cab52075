package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"claim_intake_backend/internal/intake/session"
	"claim_intake_backend/internal/intake/transport"
	"claim_intake_backend/platform/httpkit"
	"claim_intake_backend/platform/validator"
)

// Handler handles HTTP requests for the claim and damage form sessions.
type Handler struct {
	mgr           *session.Manager
	val           *validator.Validator
	defaultActor  string
	maxUploadSize int64
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSessionID = "invalid session id"
	msgInvalidPhotoID   = "invalid photo id"
	msgMissingPhoto     = "photo file is required"
	photoFormField      = "photo"
	multipartOverhead   = 1 << 20
)

// New creates a new intake handler.
func New(mgr *session.Manager, val *validator.Validator, defaultActor string, maxUploadSize int64) *Handler {
	return &Handler{mgr: mgr, val: val, defaultActor: defaultActor, maxUploadSize: maxUploadSize}
}

func (h *Handler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSessionID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

// =============================================================================
// Claim form
// =============================================================================

// OpenClaim starts an empty claim form.
// POST /api/v1/intake/claims
func (h *Handler) OpenClaim(c *gin.Context) {
	view, err := h.mgr.OpenClaimSession(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, view)
}

// GetClaim returns the current state of a claim form.
// GET /api/v1/intake/claims/:id
func (h *Handler) GetClaim(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.mgr.GetClaimSession(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// EditClaim applies a partial edit to a claim form.
// PATCH /api/v1/intake/claims/:id
func (h *Handler) EditClaim(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req transport.EditClaimRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.mgr.EditClaimDraft(c.Request.Context(), id, session.ClaimEdit{
		UserID:      req.UserID,
		PolicyID:    req.PolicyID,
		Location:    req.Location,
		Description: req.Description,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// SubmitClaim writes the claim and closes the form.
// POST /api/v1/intake/claims/:id/submit
func (h *Handler) SubmitClaim(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.mgr.SubmitClaim(c.Request.Context(), id, httpkit.ActorName(identity, h.defaultActor))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// CloseClaim discards a claim form.
// DELETE /api/v1/intake/claims/:id
func (h *Handler) CloseClaim(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.mgr.CloseClaimSession(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// =============================================================================
// Damage form
// =============================================================================

// OpenDamage starts an empty damage form on a claim.
// POST /api/v1/intake/damages
func (h *Handler) OpenDamage(c *gin.Context) {
	var req transport.OpenDamageRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.mgr.OpenDamageSession(c.Request.Context(), req.ClaimID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, view)
}

// OpenResubmission loads a refused damage into a new form.
// POST /api/v1/intake/resubmissions
func (h *Handler) OpenResubmission(c *gin.Context) {
	var req transport.OpenResubmissionRequest
	if !h.bind(c, &req) {
		return
	}
	view, err := h.mgr.OpenResubmission(c.Request.Context(), req.DamageID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, view)
}

// GetDamage returns the current state of a damage form.
// GET /api/v1/intake/damages/:id
func (h *Handler) GetDamage(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.mgr.GetDamageSession(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// EditDamage applies a partial text edit to a damage form.
// PATCH /api/v1/intake/damages/:id
func (h *Handler) EditDamage(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req transport.EditDamageRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.mgr.EditDamageDraft(c.Request.Context(), id, session.DamageEdit{
		VehiclePart: req.VehiclePart,
		Description: req.Description,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// UploadPhoto adds one photo from a multipart form field named "photo".
// POST /api/v1/intake/damages/:id/photos
func (h *Handler) UploadPhoto(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)
	}
	header, err := c.FormFile(photoFormField)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingPhoto, nil)
		return
	}
	file, err := header.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgMissingPhoto, nil)
		return
	}
	defer func() { _ = file.Close() }()

	view, err := h.mgr.UploadPhoto(c.Request.Context(), id, session.PhotoUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, view)
}

// RemovePhoto drops a photo and any issue raised for it.
// DELETE /api/v1/intake/damages/:id/photos/:photoId
func (h *Handler) RemovePhoto(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	photoID, err := uuid.Parse(c.Param("photoId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidPhotoID, nil)
		return
	}

	view, err := h.mgr.RemovePhoto(c.Request.Context(), id, photoID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// AcceptEstimate takes the engine estimate.
// POST /api/v1/intake/damages/:id/accept
func (h *Handler) AcceptEstimate(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.mgr.AcceptEstimate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// RejectEstimate switches to a manual estimate.
// POST /api/v1/intake/damages/:id/reject
func (h *Handler) RejectEstimate(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req transport.OverrideRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}

	view, err := h.mgr.RejectEstimate(c.Request.Context(), id, session.OverrideInput{AmountCents: req.AmountCents, Comment: req.Comment})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// SetOverride updates the manual estimate.
// PUT /api/v1/intake/damages/:id/override
func (h *Handler) SetOverride(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req transport.OverrideRequest
	if !h.bind(c, &req) {
		return
	}

	view, err := h.mgr.SetOverride(c.Request.Context(), id, session.OverrideInput{AmountCents: req.AmountCents, Comment: req.Comment})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// Reevaluate runs the engine again.
// POST /api/v1/intake/damages/:id/reevaluate
func (h *Handler) Reevaluate(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	view, err := h.mgr.Reevaluate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// SubmitDamage writes the damage and closes the form.
// POST /api/v1/intake/damages/:id/submit
func (h *Handler) SubmitDamage(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.mgr.SubmitDamage(c.Request.Context(), id, httpkit.ActorName(identity, h.defaultActor))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// CloseDamage discards a damage form.
// DELETE /api/v1/intake/damages/:id
func (h *Handler) CloseDamage(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.mgr.CloseDamageSession(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
