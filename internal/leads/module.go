// Package leads is the lead-management bounded context: lifecycle writes,
// bulk import, follow-ups, and the activity trail, all classified through
// the settings module's stage registry.
package leads

import (
	"admissions_backend/internal/events"
	apphttp "admissions_backend/internal/http"
	"admissions_backend/internal/leads/activity"
	"admissions_backend/internal/leads/followups"
	"admissions_backend/internal/leads/handler"
	"admissions_backend/internal/leads/importer"
	"admissions_backend/internal/leads/management"
	"admissions_backend/internal/leads/repository"
	"admissions_backend/platform/config"
	"admissions_backend/platform/logger"
	"admissions_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler   *handler.Handler
	mgmt      *management.Service
	followUps *followups.Service
	activity  *activity.Service
	repo      *repository.Repository
}

// NewModule wires the leads services. redisClient and scheduler may be nil;
// caching and reminders degrade gracefully without them.
func NewModule(
	pool *pgxpool.Pool,
	settings management.SettingsProvider,
	store importer.ReportStore,
	redisClient *redis.Client,
	scheduler followups.ReminderScheduler,
	bus events.Bus,
	val *validator.Validator,
	cfg config.LeadsConfig,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)

	var cache *activity.Cache
	if redisClient != nil {
		cache = activity.NewCache(redisClient, activity.DefaultCacheTTL)
	}
	act := activity.NewService(repo, cache, log)

	mgmt := management.NewService(repo, settings, act, bus, cfg, log)
	importSvc := importer.NewService(repo, settings, store, bus, cfg, log)
	followUpSvc := followups.NewService(repo, act, scheduler, bus, log)

	h := handler.New(mgmt, importSvc, followUpSvc, act, val)

	return &Module{
		handler:   h,
		mgmt:      mgmt,
		followUps: followUpSvc,
		activity:  act,
		repo:      repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Management returns the lead lifecycle service for cross-module wiring.
func (m *Module) Management() *management.Service {
	return m.mgmt
}

// FollowUps returns the follow-up service.
func (m *Module) FollowUps() *followups.Service {
	return m.followUps
}

// Activity returns the activity service; the scheduler uses it to refresh
// the last-activity view.
func (m *Module) Activity() *activity.Service {
	return m.activity
}

// Repository exposes the persistence layer for the scheduler's digest job
// and the stage backfill command.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts all lead routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
