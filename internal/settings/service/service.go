// Package service implements the settings bounded context: CRUD over the
// admin-managed configuration tables and ownership of the stage registry
// snapshot that every other module resolves stages through.
package service

import (
	"context"
	"strings"
	"sync/atomic"

	"admissions_backend/internal/events"
	"admissions_backend/internal/settings/domain"
	"admissions_backend/internal/settings/repository"
	"admissions_backend/internal/settings/transport"
	"admissions_backend/platform/apperr"
	"admissions_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository defines the data access needed by the settings service.
type Repository interface {
	ListStages(ctx context.Context) ([]domain.Stage, error)
	CreateStage(ctx context.Context, params repository.CreateStageParams) (domain.Stage, error)
	UpdateStage(ctx context.Context, id uuid.UUID, params repository.UpdateStageParams) (domain.Stage, error)
	ToggleStage(ctx context.Context, id uuid.UUID) (bool, error)
	SwapStageOrder(ctx context.Context, id uuid.UUID, direction string) error

	ListCounsellors(ctx context.Context, activeOnly bool) ([]domain.Counsellor, error)
	CreateCounsellor(ctx context.Context, params repository.CounsellorParams) (domain.Counsellor, error)
	UpdateCounsellor(ctx context.Context, id uuid.UUID, params repository.CounsellorParams) (domain.Counsellor, error)
	ToggleCounsellor(ctx context.Context, id uuid.UUID) (bool, error)

	ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error)
	ListGrades(ctx context.Context, activeOnly bool) ([]domain.Grade, error)
	CreateNamed(ctx context.Context, table, name string) (uuid.UUID, error)
	ToggleNamed(ctx context.Context, table string, id uuid.UUID) (bool, error)

	ListFormFields(ctx context.Context, activeOnly bool) ([]domain.FormField, error)
	CreateFormField(ctx context.Context, params repository.FormFieldParams) (domain.FormField, error)
	DeleteFormField(ctx context.Context, id uuid.UUID) error
}

// Service owns settings mutations and the derived stage registry snapshot.
// The snapshot is rebuilt from a full re-fetch after every mutation, never
// patched incrementally; the stage list is small so this stays cheap.
type Service struct {
	repo     Repository
	bus      events.Bus
	log      *logger.Logger
	registry atomic.Pointer[domain.Registry]
}

// New creates the settings service. The registry snapshot is loaded lazily on
// first use and eagerly after every settings mutation.
func New(repo Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Registry returns the current stage registry snapshot, fetching and building
// it on first use. Errors degrade to an empty registry so read paths never
// fail outright on a settings hiccup; the error is logged.
func (s *Service) Registry(ctx context.Context) *domain.Registry {
	if reg := s.registry.Load(); reg != nil {
		return reg
	}
	return s.rebuild(ctx)
}

func (s *Service) rebuild(ctx context.Context) *domain.Registry {
	stages, err := s.repo.ListStages(ctx)
	if err != nil {
		s.log.DatabaseError("settings.list_stages", err)
		empty := domain.BuildRegistry(nil)
		// Do not cache the empty registry; retry on next use.
		return empty
	}

	reg := domain.BuildRegistry(stages)
	for _, skipped := range reg.Skipped() {
		s.log.StageConfigWarning("stage has neither stage_key nor usable name", skipped.ID.String())
	}

	s.registry.Store(reg)
	return reg
}

func (s *Service) settingsChanged(ctx context.Context, entity string) {
	s.rebuild(ctx)
	if s.bus != nil {
		s.bus.Publish(ctx, events.SettingsChanged{BaseEvent: events.NewBaseEvent(), Entity: entity})
	}
}

// =====================================
// Stages
// =====================================

// ListStages returns every stage, active and inactive, in pipeline order.
func (s *Service) ListStages(ctx context.Context) ([]transport.StageResponse, error) {
	stages, err := s.repo.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	return transport.ToStageResponses(stages), nil
}

// CreateStage adds a stage at the end of the pipeline. The stage key is
// derived from the name once, at creation time, and is immutable afterwards
// so that renames never orphan persisted leads.
func (s *Service) CreateStage(ctx context.Context, req transport.CreateStageRequest) (transport.StageResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.StageResponse{}, apperr.Validation("stage name is required")
	}

	key := domain.FallbackKey(name)
	if key == "" {
		return transport.StageResponse{}, apperr.Validation("stage name must contain at least one letter or digit")
	}

	reg := s.Registry(ctx)
	if _, exists := reg.Record(key); exists {
		return transport.StageResponse{}, apperr.Conflict("a stage with this key already exists")
	}

	category := domain.Category(req.Category)
	if !domain.KnownCategory(req.Category) {
		category = domain.DefaultCategory
	}

	color := req.Color
	if color == "" {
		color = domain.DefaultColor
	}

	stage, err := s.repo.CreateStage(ctx, repository.CreateStageParams{
		StageKey: key,
		Name:     name,
		Color:    color,
		Score:    req.Score,
		Category: category,
	})
	if err != nil {
		return transport.StageResponse{}, err
	}

	s.settingsChanged(ctx, "stages")
	return transport.ToStageResponse(stage), nil
}

// UpdateStage renames/recolors/rescores a stage. The key never changes.
func (s *Service) UpdateStage(ctx context.Context, id uuid.UUID, req transport.UpdateStageRequest) (transport.StageResponse, error) {
	params := repository.UpdateStageParams{
		Color: req.Color,
		Score: req.Score,
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return transport.StageResponse{}, apperr.Validation("stage name cannot be empty")
		}
		params.Name = &trimmed
	}

	if req.Category != nil {
		if !domain.KnownCategory(*req.Category) {
			return transport.StageResponse{}, apperr.Validation("unknown category")
		}
		category := domain.Category(*req.Category)
		params.Category = &category
	}

	stage, err := s.repo.UpdateStage(ctx, id, params)
	if err != nil {
		if err == repository.ErrNotFound {
			return transport.StageResponse{}, apperr.NotFound("stage not found")
		}
		return transport.StageResponse{}, err
	}

	s.settingsChanged(ctx, "stages")
	return transport.ToStageResponse(stage), nil
}

// ToggleStage activates or deactivates a stage.
func (s *Service) ToggleStage(ctx context.Context, id uuid.UUID) (bool, error) {
	active, err := s.repo.ToggleStage(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return false, apperr.NotFound("stage not found")
		}
		return false, err
	}

	s.settingsChanged(ctx, "stages")
	return active, nil
}

// ReorderStage moves a stage one position up or down by swapping adjacent
// sort_order values.
func (s *Service) ReorderStage(ctx context.Context, id uuid.UUID, direction string) error {
	if direction != "up" && direction != "down" {
		return apperr.Validation("direction must be up or down")
	}

	if err := s.repo.SwapStageOrder(ctx, id, direction); err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("stage not found")
		}
		return err
	}

	s.settingsChanged(ctx, "stages")
	return nil
}

// =====================================
// Counsellors
// =====================================

func (s *Service) ListCounsellors(ctx context.Context, activeOnly bool) ([]domain.Counsellor, error) {
	return s.repo.ListCounsellors(ctx, activeOnly)
}

func (s *Service) CreateCounsellor(ctx context.Context, req transport.CounsellorRequest) (domain.Counsellor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Counsellor{}, apperr.Validation("counsellor name is required")
	}

	c, err := s.repo.CreateCounsellor(ctx, repository.CounsellorParams{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return domain.Counsellor{}, err
	}

	s.settingsChanged(ctx, "counsellors")
	return c, nil
}

func (s *Service) UpdateCounsellor(ctx context.Context, id uuid.UUID, req transport.CounsellorRequest) (domain.Counsellor, error) {
	c, err := s.repo.UpdateCounsellor(ctx, id, repository.CounsellorParams{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		if err == repository.ErrNotFound {
			return domain.Counsellor{}, apperr.NotFound("counsellor not found")
		}
		return domain.Counsellor{}, err
	}

	s.settingsChanged(ctx, "counsellors")
	return c, nil
}

func (s *Service) ToggleCounsellor(ctx context.Context, id uuid.UUID) (bool, error) {
	active, err := s.repo.ToggleCounsellor(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return false, apperr.NotFound("counsellor not found")
		}
		return false, err
	}

	s.settingsChanged(ctx, "counsellors")
	return active, nil
}

// =====================================
// Sources, Grades
// =====================================

func (s *Service) ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error) {
	return s.repo.ListSources(ctx, activeOnly)
}

func (s *Service) ListGrades(ctx context.Context, activeOnly bool) ([]domain.Grade, error) {
	return s.repo.ListGrades(ctx, activeOnly)
}

func (s *Service) CreateSource(ctx context.Context, name string) (uuid.UUID, error) {
	return s.createNamed(ctx, "sources", name)
}

func (s *Service) CreateGrade(ctx context.Context, name string) (uuid.UUID, error) {
	return s.createNamed(ctx, "grades", name)
}

func (s *Service) createNamed(ctx context.Context, table, name string) (uuid.UUID, error) {
	if strings.TrimSpace(name) == "" {
		return uuid.Nil, apperr.Validation("name is required")
	}

	id, err := s.repo.CreateNamed(ctx, table, strings.TrimSpace(name))
	if err != nil {
		return uuid.Nil, err
	}

	s.settingsChanged(ctx, table)
	return id, nil
}

func (s *Service) ToggleSource(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.toggleNamed(ctx, "sources", id)
}

func (s *Service) ToggleGrade(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.toggleNamed(ctx, "grades", id)
}

func (s *Service) toggleNamed(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	active, err := s.repo.ToggleNamed(ctx, table, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return false, apperr.NotFound("record not found")
		}
		return false, err
	}

	s.settingsChanged(ctx, table)
	return active, nil
}

// =====================================
// Form fields
// =====================================

func (s *Service) ListFormFields(ctx context.Context, activeOnly bool) ([]domain.FormField, error) {
	return s.repo.ListFormFields(ctx, activeOnly)
}

func (s *Service) CreateFormField(ctx context.Context, req transport.FormFieldRequest) (domain.FormField, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return domain.FormField{}, apperr.Validation("field label is required")
	}

	key := domain.FallbackKey(label)
	if key == "" {
		return domain.FormField{}, apperr.Validation("field label must contain at least one letter or digit")
	}

	fieldType := req.FieldType
	switch fieldType {
	case "text", "number", "date", "select":
	default:
		fieldType = "text"
	}

	f, err := s.repo.CreateFormField(ctx, repository.FormFieldParams{
		FieldKey:  key,
		Label:     label,
		FieldType: fieldType,
		Options:   req.Options,
	})
	if err != nil {
		return domain.FormField{}, err
	}

	s.settingsChanged(ctx, "form_fields")
	return f, nil
}

func (s *Service) DeleteFormField(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteFormField(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return apperr.NotFound("form field not found")
		}
		return err
	}

	s.settingsChanged(ctx, "form_fields")
	return nil
}

// DefaultSourceName returns the first active configured source name, falling
// back to a hardcoded list when settings are empty.
func (s *Service) DefaultSourceName(ctx context.Context) string {
	sources, err := s.repo.ListSources(ctx, true)
	if err == nil && len(sources) > 0 {
		return sources[0].Name
	}
	return fallbackSources[0]
}

var fallbackSources = []string{"Website", "Walk-in", "Referral", "Social Media"}
