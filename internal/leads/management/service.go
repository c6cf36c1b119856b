// Package management owns lead lifecycle writes: creation, edits, deletion,
// and the stage mutation protocol that keeps derived fields and the
// previous-stage pointer consistent.
package management

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admissions_backend/internal/events"
	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"
	settingsdomain "admissions_backend/internal/settings/domain"
	"admissions_backend/platform/apperr"
	"admissions_backend/platform/logger"
	"admissions_backend/platform/phone"

	"github.com/google/uuid"
)

// Audit action labels written to the logs table.
const (
	actionCreated      = "created"
	actionUpdated      = "updated"
	actionStageChanged = "stage_changed"
	actionReactivated  = "reactivated"
	actionDeleted      = "deleted"
)

// Repository is the persistence surface this service needs.
type Repository interface {
	CreateLead(ctx context.Context, params repository.CreateLeadParams) (domain.RawLead, error)
	GetLead(ctx context.Context, id uuid.UUID) (domain.RawLead, error)
	ListLeads(ctx context.Context, params repository.ListLeadsParams) ([]domain.RawLead, error)
	UpdateLead(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (domain.RawLead, error)
	UpdateLeadStage(ctx context.Context, id uuid.UUID, params repository.UpdateStageParams) (domain.RawLead, error)
	DeleteLeads(ctx context.Context, ids []uuid.UUID) (int64, error)
	ListFieldValues(ctx context.Context, leadID uuid.UUID) (map[string]string, error)
	ListFieldValuesForLeads(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]map[string]string, error)
	ReplaceFieldValues(ctx context.Context, leadID uuid.UUID, values map[string]string) error
}

// SettingsProvider is the port into the settings module: the current registry
// snapshot and the default source.
type SettingsProvider interface {
	Registry(ctx context.Context) *settingsdomain.Registry
	DefaultSourceName(ctx context.Context) string
}

// ActivityRecorder is the port into the activity service.
type ActivityRecorder interface {
	Append(ctx context.Context, leadID uuid.UUID, action, description string) error
	LastActivity(ctx context.Context) map[uuid.UUID]time.Time
}

// Config carries the tunables the service reads.
type Config interface {
	GetAlertStaleAfter() time.Duration
}

type Service struct {
	repo     Repository
	settings SettingsProvider
	activity ActivityRecorder
	bus      events.Bus
	cfg      Config
	log      *logger.Logger
}

func NewService(repo Repository, settings SettingsProvider, activity ActivityRecorder, bus events.Bus, cfg Config, log *logger.Logger) *Service {
	return &Service{repo: repo, settings: settings, activity: activity, bus: bus, cfg: cfg, log: log}
}

type CreateParams struct {
	ParentsName      string
	KidsName         string
	Phone            string
	SecondPhone      string
	Email            string
	Location         string
	Grade            string
	Counsellor       string
	Offer            string
	Notes            string
	Source           string
	Occupation       string
	CurrentSchool    string
	MeetDatetime     *time.Time
	MeetLink         string
	VisitDatetime    *time.Time
	VisitLocation    string
	RegFees          string
	EnrollmentStatus string
	StageResponses   map[string]string
	CustomFields     map[string]string
}

// Create inserts a lead at the first active stage in pipeline order; the
// caller never chooses a starting stage. Publishes LeadCreated on success.
func (s *Service) Create(ctx context.Context, params CreateParams) (domain.Lead, error) {
	reg := s.settings.Registry(ctx)

	firstKey, ok := reg.FirstActiveKey()
	if !ok {
		return domain.Lead{}, apperr.Validation("no active stage is configured; cannot create leads")
	}

	source := params.Source
	if source == "" {
		source = s.settings.DefaultSourceName(ctx)
	}

	raw, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		ParentsName:      params.ParentsName,
		KidsName:         params.KidsName,
		Phone:            phone.NormalizeLocal(params.Phone),
		SecondPhone:      phone.NormalizeLocal(params.SecondPhone),
		Email:            params.Email,
		Location:         params.Location,
		Grade:            params.Grade,
		Stage:            firstKey,
		Score:            reg.ScoreOf(firstKey),
		Category:         string(reg.CategoryOf(firstKey)),
		Counsellor:       params.Counsellor,
		Offer:            params.Offer,
		Notes:            params.Notes,
		Source:           source,
		Occupation:       params.Occupation,
		CurrentSchool:    params.CurrentSchool,
		MeetDatetime:     params.MeetDatetime,
		MeetLink:         params.MeetLink,
		VisitDatetime:    params.VisitDatetime,
		VisitLocation:    params.VisitLocation,
		RegFees:          params.RegFees,
		EnrollmentStatus: params.EnrollmentStatus,
		StageResponses:   params.StageResponses,
	})
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	if len(params.CustomFields) > 0 {
		if err := s.repo.ReplaceFieldValues(ctx, raw.ID, params.CustomFields); err != nil {
			// Field values are supplementary; the lead itself is already in.
			s.log.DatabaseError("replace_field_values", err)
		}
	}

	if err := s.activity.Append(ctx, raw.ID, actionCreated, fmt.Sprintf("Lead created for %s", params.ParentsName)); err != nil {
		s.log.DatabaseError("append_activity", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     raw.ID,
		ParentName: raw.ParentsName,
		ChildName:  raw.KidsName,
		Phone:      raw.Phone,
		Grade:      raw.Grade,
		Source:     raw.Source,
	})

	return s.normalize(ctx, raw, params.CustomFields), nil
}

// Get returns one canonical lead. A custom-field fetch failure degrades to an
// empty map for that lead, logged, never propagated.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	raw, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return domain.Lead{}, leadErr(err)
	}

	fields, err := s.repo.ListFieldValues(ctx, id)
	if err != nil {
		s.log.DatabaseError("list_field_values", err)
		fields = map[string]string{}
	}

	return s.normalize(ctx, raw, fields), nil
}

type ListParams struct {
	Category string
	Filter   domain.Filter
	Limit    int
	Offset   int
}

// List fetches a batch, normalizes every row through the current registry
// snapshot, and applies the shared filter predicates in memory.
func (s *Service) List(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	raws, err := s.repo.ListLeads(ctx, repository.ListLeadsParams{
		Category: params.Category,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}

	ids := make([]uuid.UUID, len(raws))
	for i, r := range raws {
		ids[i] = r.ID
	}
	fieldsByLead, err := s.repo.ListFieldValuesForLeads(ctx, ids)
	if err != nil {
		s.log.DatabaseError("list_field_values_batch", err)
		fieldsByLead = map[uuid.UUID]map[string]string{}
	}

	reg := s.settings.Registry(ctx)
	defaultSource := s.settings.DefaultSourceName(ctx)
	leads := make([]domain.Lead, len(raws))
	for i, raw := range raws {
		leads[i] = domain.Normalize(raw, reg, domain.NormalizeOptions{
			DefaultSource: defaultSource,
			CustomFields:  fieldsByLead[raw.ID],
		})
	}

	env := domain.FilterEnv{
		Now:          time.Now(),
		AlertAfter:   s.cfg.GetAlertStaleAfter(),
		LastActivity: nil,
	}
	if params.Filter.Alert {
		env.LastActivity = s.activity.LastActivity(ctx)
	}

	return domain.Apply(leads, params.Filter, env), nil
}

type UpdateParams struct {
	Fields       repository.UpdateLeadParams
	CustomFields map[string]string
	Stage        *string
	Surface      string
}

// Update patches a lead's fields. When the payload carries a stage that
// differs from the current one, the stage mutation protocol runs after the
// field update so derived fields stay consistent.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (domain.Lead, error) {
	_, err := s.repo.UpdateLead(ctx, id, params.Fields)
	if err != nil {
		return domain.Lead{}, leadErr(err)
	}

	if params.CustomFields != nil {
		if err := s.repo.ReplaceFieldValues(ctx, id, params.CustomFields); err != nil {
			s.log.DatabaseError("replace_field_values", err)
		}
	}

	if err := s.activity.Append(ctx, id, actionUpdated, "Lead details updated"); err != nil {
		s.log.DatabaseError("append_activity", err)
	}

	if params.Stage != nil && *params.Stage != "" {
		return s.ChangeStage(ctx, id, *params.Stage, params.Surface)
	}
	return s.Get(ctx, id)
}

// ChangeStage runs the stage mutation protocol: resolve both keys through the
// registry, write the audit entry with display names, derive score and
// category, apply the previous-stage rule, and persist everything as one
// atomic update. A persistence failure leaves the audit entry as a harmless
// orphan.
func (s *Service) ChangeStage(ctx context.Context, id uuid.UUID, input, surface string) (domain.Lead, error) {
	raw, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return domain.Lead{}, leadErr(err)
	}

	reg := s.settings.Registry(ctx)
	oldKey := reg.Resolve(raw.Stage)
	newKey := reg.Resolve(input)

	if oldKey == newKey {
		return s.Get(ctx, id)
	}

	description := fmt.Sprintf("Stage changed from %s to %s (%s)",
		reg.NameFromKey(oldKey), reg.NameFromKey(newKey), surface)
	if err := s.activity.Append(ctx, id, actionStageChanged, description); err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to record stage change", err)
	}

	previous, setPrevious := domain.NextPreviousStage(raw.PreviousStage, oldKey, newKey, reg.NoResponseKey())

	updated, err := s.repo.UpdateLeadStage(ctx, id, repository.UpdateStageParams{
		Stage:            newKey,
		Score:            reg.ScoreOf(newKey),
		Category:         string(reg.CategoryOf(newKey)),
		PreviousStage:    previous,
		SetPreviousStage: setPrevious,
	})
	if err != nil {
		return domain.Lead{}, leadErr(err)
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       id,
		FromStage:    reg.NameFromKey(oldKey),
		ToStage:      reg.NameFromKey(newKey),
		FromCategory: raw.Category,
		ToCategory:   updated.Category,
		Surface:      surface,
	})

	return s.normalize(ctx, updated, nil), nil
}

// Reactivate restores a no-response lead to its stashed previous stage,
// recomputes derived fields from it, and clears the pointer. Blocked with a
// validation error when there is nothing to restore.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, surface string) (domain.Lead, error) {
	raw, err := s.repo.GetLead(ctx, id)
	if err != nil {
		return domain.Lead{}, leadErr(err)
	}

	reg := s.settings.Registry(ctx)
	target, err := domain.ReactivationTarget(reg.Resolve(raw.Stage), raw.PreviousStage, reg.NoResponseKey())
	if err != nil {
		return domain.Lead{}, apperr.Validation("lead cannot be reactivated: no previous stage recorded")
	}

	description := fmt.Sprintf("Lead reactivated to %s (%s)", reg.NameFromKey(target), surface)
	if err := s.activity.Append(ctx, id, actionReactivated, description); err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to record reactivation", err)
	}

	updated, err := s.repo.UpdateLeadStage(ctx, id, repository.UpdateStageParams{
		Stage:            target,
		Score:            reg.ScoreOf(target),
		Category:         string(reg.CategoryOf(target)),
		PreviousStage:    nil,
		SetPreviousStage: true,
	})
	if err != nil {
		return domain.Lead{}, leadErr(err)
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       id,
		FromStage:    reg.NameFromKey(reg.NoResponseKey()),
		ToStage:      reg.NameFromKey(target),
		FromCategory: raw.Category,
		ToCategory:   updated.Category,
		Surface:      surface,
	})

	return s.normalize(ctx, updated, nil), nil
}

// Delete removes leads in bulk; custom-field values cascade, audit history is
// kept. Returns the number of rows removed.
func (s *Service) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.BadRequest("no lead ids given")
	}

	for _, id := range ids {
		if err := s.activity.Append(ctx, id, actionDeleted, "Lead deleted"); err != nil {
			s.log.DatabaseError("append_activity", err)
		}
	}

	deleted, err := s.repo.DeleteLeads(ctx, ids)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to delete leads", err)
	}
	return deleted, nil
}

func (s *Service) normalize(ctx context.Context, raw domain.RawLead, fields map[string]string) domain.Lead {
	if fields == nil {
		var err error
		fields, err = s.repo.ListFieldValues(ctx, raw.ID)
		if err != nil {
			s.log.DatabaseError("list_field_values", err)
			fields = map[string]string{}
		}
	}
	return domain.Normalize(raw, s.settings.Registry(ctx), domain.NormalizeOptions{
		DefaultSource: s.settings.DefaultSourceName(ctx),
		CustomFields:  fields,
	})
}

func leadErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return apperr.Wrap(apperr.KindInternal, "lead operation failed", err)
}
