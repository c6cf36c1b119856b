package management

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"admissions_backend/internal/events"
	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"
	settingsdomain "admissions_backend/internal/settings/domain"
	"admissions_backend/platform/apperr"
	"admissions_backend/platform/logger"
)

type fakeRepo struct {
	leads  map[uuid.UUID]domain.RawLead
	fields map[uuid.UUID]map[string]string
	ops    *[]string
}

func newFakeRepo(ops *[]string) *fakeRepo {
	return &fakeRepo{
		leads:  map[uuid.UUID]domain.RawLead{},
		fields: map[uuid.UUID]map[string]string{},
		ops:    ops,
	}
}

func (f *fakeRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (domain.RawLead, error) {
	raw := domain.RawLead{
		ID:          uuid.New(),
		ParentsName: params.ParentsName,
		KidsName:    params.KidsName,
		Phone:       params.Phone,
		Grade:       params.Grade,
		Stage:       params.Stage,
		Score:       params.Score,
		Category:    params.Category,
		Source:      params.Source,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.leads[raw.ID] = raw
	return raw, nil
}

func (f *fakeRepo) GetLead(_ context.Context, id uuid.UUID) (domain.RawLead, error) {
	raw, ok := f.leads[id]
	if !ok {
		return domain.RawLead{}, repository.ErrNotFound
	}
	return raw, nil
}

func (f *fakeRepo) ListLeads(_ context.Context, params repository.ListLeadsParams) ([]domain.RawLead, error) {
	out := make([]domain.RawLead, 0, len(f.leads))
	for _, l := range f.leads {
		if params.Category == "" || l.Category == params.Category {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateLead(_ context.Context, id uuid.UUID, params repository.UpdateLeadParams) (domain.RawLead, error) {
	raw, ok := f.leads[id]
	if !ok {
		return domain.RawLead{}, repository.ErrNotFound
	}
	if params.ParentsName != nil {
		raw.ParentsName = *params.ParentsName
	}
	if params.Notes != nil {
		raw.Notes = *params.Notes
	}
	f.leads[id] = raw
	return raw, nil
}

func (f *fakeRepo) UpdateLeadStage(_ context.Context, id uuid.UUID, params repository.UpdateStageParams) (domain.RawLead, error) {
	*f.ops = append(*f.ops, "update_stage")
	raw, ok := f.leads[id]
	if !ok {
		return domain.RawLead{}, repository.ErrNotFound
	}
	raw.Stage = params.Stage
	raw.Score = params.Score
	raw.Category = params.Category
	if params.SetPreviousStage {
		raw.PreviousStage = params.PreviousStage
	}
	f.leads[id] = raw
	return raw, nil
}

func (f *fakeRepo) DeleteLeads(_ context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := f.leads[id]; ok {
			delete(f.leads, id)
			delete(f.fields, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) ListFieldValues(_ context.Context, leadID uuid.UUID) (map[string]string, error) {
	return f.fields[leadID], nil
}

func (f *fakeRepo) ListFieldValuesForLeads(_ context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]map[string]string, error) {
	out := map[uuid.UUID]map[string]string{}
	for _, id := range leadIDs {
		if v, ok := f.fields[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceFieldValues(_ context.Context, leadID uuid.UUID, values map[string]string) error {
	f.fields[leadID] = values
	return nil
}

type fakeSettings struct {
	reg *settingsdomain.Registry
}

func (f *fakeSettings) Registry(context.Context) *settingsdomain.Registry { return f.reg }
func (f *fakeSettings) DefaultSourceName(context.Context) string         { return "Website" }

type fakeActivity struct {
	ops     *[]string
	actions []string
	failing bool
}

func (f *fakeActivity) Append(_ context.Context, _ uuid.UUID, action, _ string) error {
	if f.failing {
		return errors.New("logs table unavailable")
	}
	*f.ops = append(*f.ops, "log")
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakeActivity) LastActivity(context.Context) map[uuid.UUID]time.Time {
	return map[uuid.UUID]time.Time{}
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, e events.Event) { f.published = append(f.published, e) }
func (f *fakeBus) PublishSync(_ context.Context, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}
func (f *fakeBus) Subscribe(string, events.Handler) {}

type fakeConfig struct{}

func (fakeConfig) GetAlertStaleAfter() time.Duration { return 72 * time.Hour }

func testRegistry() *settingsdomain.Registry {
	return settingsdomain.BuildRegistry([]settingsdomain.Stage{
		{StageKey: "new_lead", Name: "New Lead", Score: 20, Category: settingsdomain.CategoryNew, IsActive: true, SortOrder: 1},
		{StageKey: "connected", Name: "Connected", Score: 40, Category: settingsdomain.CategoryWarm, IsActive: true, SortOrder: 2},
		{StageKey: "meeting_booked", Name: "Meeting Booked", Score: 60, Category: settingsdomain.CategoryHot, IsActive: true, SortOrder: 3},
		{StageKey: "visit_booked", Name: "Visit Booked", Score: 70, Category: settingsdomain.CategoryHot, IsActive: true, SortOrder: 4},
		{StageKey: "no_response", Name: "No Response", Score: 5, Category: settingsdomain.CategoryCold, IsActive: true, SortOrder: 5},
	})
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeActivity, *fakeBus, *[]string) {
	t.Helper()
	ops := &[]string{}
	repo := newFakeRepo(ops)
	act := &fakeActivity{ops: ops}
	bus := &fakeBus{}
	svc := NewService(repo, &fakeSettings{reg: testRegistry()}, act, bus, fakeConfig{}, logger.New("development"))
	return svc, repo, act, bus, ops
}

func TestCreateStartsAtFirstActiveStage(t *testing.T) {
	svc, _, _, bus, _ := newTestService(t)

	lead, err := svc.Create(context.Background(), CreateParams{
		ParentsName: "Asha Rao",
		KidsName:    "Dev",
		Phone:       "+91 98765 43210",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Stage != "new_lead" {
		t.Errorf("stage = %q, want new_lead", lead.Stage)
	}
	if lead.Score != 20 || lead.Category != "New" {
		t.Errorf("derived fields = (%d, %s), want (20, New)", lead.Score, lead.Category)
	}
	if lead.Source != "Website" {
		t.Errorf("source = %q, want default", lead.Source)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	created, ok := bus.published[0].(events.LeadCreated)
	if !ok {
		t.Fatalf("published event has type %T", bus.published[0])
	}
	if created.Phone != "9876543210" {
		t.Errorf("event phone = %q, want normalized", created.Phone)
	}
}

func TestCreateBlockedWithoutActiveStages(t *testing.T) {
	ops := &[]string{}
	repo := newFakeRepo(ops)
	empty := settingsdomain.BuildRegistry(nil)
	svc := NewService(repo, &fakeSettings{reg: empty}, &fakeActivity{ops: ops}, &fakeBus{}, fakeConfig{}, logger.New("development"))

	_, err := svc.Create(context.Background(), CreateParams{ParentsName: "x", Phone: "9876543210"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("error kind = %v, want validation", apperr.GetKind(err))
	}
}

func seedLead(repo *fakeRepo, stage, category string, previous *string) uuid.UUID {
	id := uuid.New()
	repo.leads[id] = domain.RawLead{
		ID:            id,
		ParentsName:   "Asha",
		Stage:         stage,
		Category:      category,
		PreviousStage: previous,
		CreatedAt:     time.Now(),
	}
	return id
}

func TestChangeStageIntoTerminalStashesPrevious(t *testing.T) {
	svc, repo, _, bus, ops := newTestService(t)
	id := seedLead(repo, "connected", "Warm", nil)

	lead, err := svc.ChangeStage(context.Background(), id, "no_response", "table dropdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Stage != "no_response" {
		t.Errorf("stage = %q", lead.Stage)
	}
	if lead.PreviousStage == nil || *lead.PreviousStage != "connected" {
		t.Errorf("previous stage = %v, want connected", lead.PreviousStage)
	}
	if lead.Category != "Cold" || lead.Score != 5 {
		t.Errorf("derived fields = (%d, %s), want (5, Cold)", lead.Score, lead.Category)
	}

	// The audit entry must be written before the stage update.
	if len(*ops) != 2 || (*ops)[0] != "log" || (*ops)[1] != "update_stage" {
		t.Errorf("operation order = %v, want [log update_stage]", *ops)
	}

	changed, ok := bus.published[0].(events.LeadStageChanged)
	if !ok {
		t.Fatalf("published event has type %T", bus.published[0])
	}
	if changed.FromStage != "Connected" || changed.ToStage != "No Response" {
		t.Errorf("event carries (%q, %q), want display names", changed.FromStage, changed.ToStage)
	}
	if changed.Surface != "table dropdown" {
		t.Errorf("surface = %q", changed.Surface)
	}
}

func TestChangeStageOutOfTerminalClearsPrevious(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	prev := "connected"
	id := seedLead(repo, "no_response", "Cold", &prev)

	lead, err := svc.ChangeStage(context.Background(), id, "meeting_booked", "sidebar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Stage != "meeting_booked" || lead.PreviousStage != nil {
		t.Errorf("lead = (stage %q, previous %v), want (meeting_booked, nil)", lead.Stage, lead.PreviousStage)
	}
}

func TestChangeStageResolvesLegacyNames(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	// Stored stage is a legacy display name; input is a display name too.
	id := seedLead(repo, "Connected", "Warm", nil)

	lead, err := svc.ChangeStage(context.Background(), id, "Meeting Booked", "sidebar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Stage != "meeting_booked" {
		t.Errorf("stage = %q, want canonical key persisted", lead.Stage)
	}
}

func TestChangeStageSameKeyIsNoop(t *testing.T) {
	svc, repo, act, bus, _ := newTestService(t)
	id := seedLead(repo, "connected", "Warm", nil)

	_, err := svc.ChangeStage(context.Background(), id, "Connected", "sidebar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(act.actions) != 0 {
		t.Errorf("no-op transition must not write audit entries, got %v", act.actions)
	}
	if len(bus.published) != 0 {
		t.Errorf("no-op transition must not publish events")
	}
}

func TestChangeStageAbortsWhenAuditWriteFails(t *testing.T) {
	svc, repo, act, _, _ := newTestService(t)
	act.failing = true
	id := seedLead(repo, "connected", "Warm", nil)

	_, err := svc.ChangeStage(context.Background(), id, "no_response", "sidebar")
	if err == nil {
		t.Fatal("expected error")
	}
	if repo.leads[id].Stage != "connected" {
		t.Errorf("stage mutated despite failed audit write")
	}
}

func TestReactivateRestoresPreviousStage(t *testing.T) {
	svc, repo, act, _, _ := newTestService(t)
	prev := "visit_booked"
	id := seedLead(repo, "no_response", "Cold", &prev)

	lead, err := svc.Reactivate(context.Background(), id, "sidebar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lead.Stage != "visit_booked" || lead.PreviousStage != nil {
		t.Errorf("lead = (stage %q, previous %v), want (visit_booked, nil)", lead.Stage, lead.PreviousStage)
	}
	if lead.Category != "Hot" || lead.Score != 70 {
		t.Errorf("derived fields = (%d, %s), want (70, Hot)", lead.Score, lead.Category)
	}
	if len(act.actions) != 1 || act.actions[0] != "reactivated" {
		t.Errorf("audit actions = %v", act.actions)
	}
}

func TestReactivateBlockedWithoutPreviousStage(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	id := seedLead(repo, "no_response", "Cold", nil)

	_, err := svc.Reactivate(context.Background(), id, "sidebar")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("error kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestDeleteRemovesLeadsAndFieldValues(t *testing.T) {
	svc, repo, _, _, _ := newTestService(t)
	id := seedLead(repo, "connected", "Warm", nil)
	repo.fields[id] = map[string]string{"sibling_school": "Yes"}

	n, err := svc.Delete(context.Background(), []uuid.UUID{id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if _, ok := repo.fields[id]; ok {
		t.Error("field values must go with the lead")
	}
}
