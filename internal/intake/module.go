// Package intake provides the claim intake workflow module: the claim and
// damage form sessions with their debounced checks and damage evaluation.
package intake

import (
	"context"
	"fmt"
	"time"

	"claim_intake_backend/internal/intake/evaluation"
	"claim_intake_backend/internal/intake/handler"
	"claim_intake_backend/internal/intake/rules"
	"claim_intake_backend/internal/intake/session"
	apphttp "claim_intake_backend/internal/http"
	"claim_intake_backend/platform/config"
	"claim_intake_backend/platform/logger"
	"claim_intake_backend/platform/validator"
)

// Module is the intake module implementing http.Module.
type Module struct {
	handler *handler.Handler
	manager *session.Manager
}

// Options carries the collaborators of the intake module. Photos may be nil
// when no object store is configured; uploads then fail as unavailable.
type Options struct {
	Records       session.Records
	Photos        session.PhotoStore
	Estimator     evaluation.Estimator
	MaxUploadSize int64
}

// NewModule loads the rule set and starts the session manager. Without an
// explicit estimator the randomized stand-in is used.
func NewModule(ctx context.Context, cfg config.IntakeConfig, opts Options, val *validator.Validator, log *logger.Logger) (*Module, error) {
	r, err := rules.Load(cfg.GetIntakeRulesFile())
	if err != nil {
		return nil, fmt.Errorf("load intake rules: %w", err)
	}

	estimator := opts.Estimator
	if estimator == nil {
		estimator = evaluation.NewSeededEstimator(uint64(time.Now().UnixNano()))
	}

	mgr := session.NewManager(ctx, session.Config{
		ClaimQuietPeriod:      cfg.GetClaimQuietPeriod(),
		ClaimEvaluationDelay:  cfg.GetClaimEvaluationDelay(),
		DamageEvaluationDelay: cfg.GetDamageEvaluationDelay(),
		IdleTTL:               cfg.GetSessionIdleTTL(),
	}, r, evaluation.Validated(estimator), opts.Records, opts.Photos, log)

	return &Module{
		handler: handler.New(mgr, val, cfg.GetDefaultActor(), opts.MaxUploadSize),
		manager: mgr,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// Manager returns the session manager for external use.
func (m *Module) Manager() *session.Manager {
	return m.manager
}

// Shutdown closes every open session.
func (m *Module) Shutdown() {
	m.manager.Shutdown()
}

// RegisterRoutes mounts intake routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	intake := ctx.Protected.Group("/intake")
	if ctx.SessionRateLimiter != nil {
		intake.Use(ctx.SessionRateLimiter.RateLimit())
	}

	claims := intake.Group("/claims")
	claims.POST("", m.handler.OpenClaim)
	claims.GET("/:id", m.handler.GetClaim)
	claims.PATCH("/:id", m.handler.EditClaim)
	claims.POST("/:id/submit", m.handler.SubmitClaim)
	claims.DELETE("/:id", m.handler.CloseClaim)

	intake.POST("/resubmissions", m.handler.OpenResubmission)

	damages := intake.Group("/damages")
	damages.POST("", m.handler.OpenDamage)
	damages.GET("/:id", m.handler.GetDamage)
	damages.PATCH("/:id", m.handler.EditDamage)
	damages.POST("/:id/photos", m.handler.UploadPhoto)
	damages.DELETE("/:id/photos/:photoId", m.handler.RemovePhoto)
	damages.POST("/:id/accept", m.handler.AcceptEstimate)
	damages.POST("/:id/reject", m.handler.RejectEstimate)
	damages.PUT("/:id/override", m.handler.SetOverride)
	damages.POST("/:id/reevaluate", m.handler.Reevaluate)
	damages.POST("/:id/submit", m.handler.SubmitDamage)
	damages.DELETE("/:id", m.handler.CloseDamage)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
