// Package settings provides the configuration bounded context module:
// stages, counsellors, sources, grades, and custom form fields, plus the
// stage registry every other module classifies leads through.
package settings

import (
	"context"

	"admissions_backend/internal/events"
	apphttp "admissions_backend/internal/http"
	"admissions_backend/internal/settings/domain"
	"admissions_backend/internal/settings/handler"
	"admissions_backend/internal/settings/repository"
	"admissions_backend/internal/settings/service"
	"admissions_backend/platform/logger"
	"admissions_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the settings module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the settings service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// Registry implements the RegistryProvider port consumed by the leads module.
func (m *Module) Registry(ctx context.Context) *domain.Registry {
	return m.service.Registry(ctx)
}

// DefaultSourceName returns the source substituted for leads created without
// one.
func (m *Module) DefaultSourceName(ctx context.Context) string {
	return m.service.DefaultSourceName(ctx)
}

// Ping is used by the health endpoint.
func (m *Module) Ping(ctx context.Context) error {
	return m.repo.Ping(ctx)
}

// RegisterRoutes mounts settings routes: reads for any authenticated user,
// mutations under the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	read := ctx.Protected.Group("/settings")
	admin := ctx.Admin.Group("/settings")
	m.handler.RegisterRoutes(read, admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
