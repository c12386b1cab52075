// Package metrics provides the portfolio and per-claim figures module.
package metrics

import (
	"claim_intake_backend/internal/events"
	apphttp "claim_intake_backend/internal/http"
	"claim_intake_backend/internal/metrics/handler"
	"claim_intake_backend/internal/metrics/service"
	"claim_intake_backend/platform/logger"
)

// Module is the metrics module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the metrics module and subscribes its cache to the
// claim and damage events. cache may be nil.
func NewModule(reader service.Reader, cache service.SnapshotCache, eventBus events.Bus, log *logger.Logger) *Module {
	svc := service.New(reader, cache, log)
	svc.Subscribe(eventBus)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "metrics"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts metrics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/metrics", m.handler.Portfolio)
	ctx.Protected.GET("/metrics/claims/:id", m.handler.ClaimFigures)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
