package followups

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"admissions_backend/internal/events"
	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"
	"admissions_backend/platform/apperr"
	"admissions_backend/platform/logger"
)

type fakeRepo struct {
	leads     map[uuid.UUID]domain.RawLead
	followUps []domain.FollowUp
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: map[uuid.UUID]domain.RawLead{}}
}

func (f *fakeRepo) GetLead(_ context.Context, id uuid.UUID) (domain.RawLead, error) {
	raw, ok := f.leads[id]
	if !ok {
		return domain.RawLead{}, repository.ErrNotFound
	}
	return raw, nil
}

func (f *fakeRepo) CreateFollowUp(_ context.Context, params repository.CreateFollowUpParams) (domain.FollowUp, error) {
	fu := domain.FollowUp{
		ID:           uuid.New(),
		LeadID:       params.LeadID,
		FollowUpDate: params.FollowUpDate,
		Details:      params.Details,
		CreatedAt:    time.Now(),
	}
	f.followUps = append(f.followUps, fu)
	return fu, nil
}

func (f *fakeRepo) ListFollowUps(_ context.Context, leadID uuid.UUID) ([]domain.FollowUp, error) {
	out := make([]domain.FollowUp, 0)
	for _, fu := range f.followUps {
		if fu.LeadID == leadID {
			out = append(out, fu)
		}
	}
	return out, nil
}

func (f *fakeRepo) NextFollowUp(_ context.Context, leadID uuid.UUID) (domain.FollowUp, error) {
	var next domain.FollowUp
	found := false
	now := time.Now()
	for _, fu := range f.followUps {
		if fu.LeadID != leadID || fu.FollowUpDate.Before(now) {
			continue
		}
		if !found || fu.FollowUpDate.Before(next.FollowUpDate) {
			next = fu
			found = true
		}
	}
	if !found {
		return domain.FollowUp{}, repository.ErrNotFound
	}
	return next, nil
}

func (f *fakeRepo) ListFollowUpsInRange(_ context.Context, from, to time.Time) ([]domain.FollowUp, error) {
	out := make([]domain.FollowUp, 0)
	for _, fu := range f.followUps {
		if !fu.FollowUpDate.Before(from) && fu.FollowUpDate.Before(to) {
			out = append(out, fu)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteFollowUp(_ context.Context, id uuid.UUID) error {
	for i, fu := range f.followUps {
		if fu.ID == id {
			f.followUps = append(f.followUps[:i], f.followUps[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeActivity struct {
	actions []string
}

func (f *fakeActivity) Append(_ context.Context, _ uuid.UUID, action, _ string) error {
	f.actions = append(f.actions, action)
	return nil
}

type fakeScheduler struct {
	scheduled []time.Time
}

func (f *fakeScheduler) ScheduleFollowUpReminder(_ context.Context, _, _ uuid.UUID, dueAt time.Time) error {
	f.scheduled = append(f.scheduled, dueAt)
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(_ context.Context, event events.Event) error {
	f.published = append(f.published, event)
	return nil
}
func (f *fakeBus) Subscribe(string, events.Handler) {}

func newTestService(repo *fakeRepo, sched ReminderScheduler) (*Service, *fakeActivity, *fakeBus) {
	act := &fakeActivity{}
	bus := &fakeBus{}
	return NewService(repo, act, sched, bus, logger.New("development")), act, bus
}

func TestCreateSchedulesReminderAndLogs(t *testing.T) {
	repo := newFakeRepo()
	leadID := uuid.New()
	repo.leads[leadID] = domain.RawLead{ID: leadID, ParentsName: "Asha"}

	sched := &fakeScheduler{}
	svc, act, bus := newTestService(repo, sched)

	dueAt := time.Now().Add(48 * time.Hour)
	fu, err := svc.Create(context.Background(), leadID, dueAt, "call back")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fu.LeadID != leadID {
		t.Errorf("LeadID = %s, want %s", fu.LeadID, leadID)
	}
	if len(sched.scheduled) != 1 || !sched.scheduled[0].Equal(dueAt) {
		t.Errorf("scheduled = %v, want one reminder at %v", sched.scheduled, dueAt)
	}
	if len(act.actions) != 1 || act.actions[0] != "followup_scheduled" {
		t.Errorf("activity actions = %v", act.actions)
	}
	if len(bus.published) != 1 {
		t.Errorf("published %d events, want 1", len(bus.published))
	}
}

func TestCreateUnknownLead(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), time.Now(), "x")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestCreateNilSchedulerStillPersists(t *testing.T) {
	repo := newFakeRepo()
	leadID := uuid.New()
	repo.leads[leadID] = domain.RawLead{ID: leadID}

	svc, _, _ := newTestService(repo, nil)
	if _, err := svc.Create(context.Background(), leadID, time.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(repo.followUps) != 1 {
		t.Fatalf("persisted %d follow-ups, want 1", len(repo.followUps))
	}
}

func TestNextPicksSoonestUpcoming(t *testing.T) {
	repo := newFakeRepo()
	leadID := uuid.New()
	repo.leads[leadID] = domain.RawLead{ID: leadID}
	svc, _, _ := newTestService(repo, nil)

	ctx := context.Background()
	for _, offset := range []time.Duration{72 * time.Hour, 24 * time.Hour, -time.Hour} {
		if _, err := svc.Create(ctx, leadID, time.Now().Add(offset), ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	next, err := svc.Next(ctx, leadID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got := time.Until(next.FollowUpDate); got > 25*time.Hour || got < 23*time.Hour {
		t.Errorf("next due in %v, want ~24h", got)
	}
}

func TestNextNoneUpcoming(t *testing.T) {
	repo := newFakeRepo()
	leadID := uuid.New()
	repo.leads[leadID] = domain.RawLead{ID: leadID}
	svc, _, _ := newTestService(repo, nil)

	_, err := svc.Next(context.Background(), leadID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestListInRangeValidatesBounds(t *testing.T) {
	svc, _, _ := newTestService(newFakeRepo(), nil)

	now := time.Now()
	if _, err := svc.ListInRange(context.Background(), now, now); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("err = %v, want bad-request", err)
	}
}
