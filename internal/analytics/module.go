package analytics

import (
	apphttp "admissions_backend/internal/http"
	"admissions_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the analytics bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(pool *pgxpool.Pool, settings SettingsProvider, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, settings, log)
	return &Module{handler: NewHandler(svc)}
}

func (m *Module) Name() string {
	return "analytics"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
