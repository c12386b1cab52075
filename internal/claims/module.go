// Package claims provides the claims bounded context module: users, policies,
// claims, damages and the damage audit timeline.
package claims

import (
	"claim_intake_backend/internal/claims/handler"
	"claim_intake_backend/internal/claims/repository"
	"claim_intake_backend/internal/claims/service"
	"claim_intake_backend/internal/events"
	apphttp "claim_intake_backend/internal/http"
	"claim_intake_backend/platform/httpkit"
	"claim_intake_backend/platform/logger"
	"claim_intake_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the claims bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the claims module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, defaultActor string, log *logger.Logger) *Module {
	return NewModuleWithRepository(repository.New(pool), eventBus, val, defaultActor, log)
}

// NewModuleWithRepository builds the module on an existing record store.
func NewModuleWithRepository(repo repository.Repository, eventBus events.Bus, val *validator.Validator, defaultActor string, log *logger.Logger) *Module {
	svc := service.New(repo, eventBus, log)
	return &Module{
		handler: handler.New(svc, val, defaultActor),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "claims"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts claims routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/users", m.handler.ListUsers)
	ctx.Protected.GET("/users/:id/policies", m.handler.ListPoliciesForUser)

	ctx.Protected.GET("/claims", m.handler.ListClaims)
	ctx.Protected.GET("/claims/:id", m.handler.GetClaim)
	ctx.Protected.GET("/claims/:id/damages", m.handler.ListClaimDamages)

	ctx.Protected.GET("/damages/:id", m.handler.GetDamage)
	ctx.Protected.GET("/damages/:id/timeline", m.handler.GetDamageTimeline)

	reviewers := ctx.Protected.Group("/damages", httpkit.RequireRole(httpkit.RoleReviewer))
	reviewers.POST("/:id/review", m.handler.ReviewDamage)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
