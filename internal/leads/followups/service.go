// Package followups manages scheduled follow-up reminders per lead.
package followups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admissions_backend/internal/events"
	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"
	"admissions_backend/platform/apperr"
	"admissions_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the persistence surface this service needs.
type Repository interface {
	GetLead(ctx context.Context, id uuid.UUID) (domain.RawLead, error)
	CreateFollowUp(ctx context.Context, params repository.CreateFollowUpParams) (domain.FollowUp, error)
	ListFollowUps(ctx context.Context, leadID uuid.UUID) ([]domain.FollowUp, error)
	NextFollowUp(ctx context.Context, leadID uuid.UUID) (domain.FollowUp, error)
	ListFollowUpsInRange(ctx context.Context, from, to time.Time) ([]domain.FollowUp, error)
	DeleteFollowUp(ctx context.Context, id uuid.UUID) error
}

// ReminderScheduler enqueues a reminder task to fire at the follow-up time.
// The scheduler module provides the implementation; a nil scheduler disables
// reminders.
type ReminderScheduler interface {
	ScheduleFollowUpReminder(ctx context.Context, followUpID, leadID uuid.UUID, dueAt time.Time) error
}

// ActivityRecorder appends audit entries.
type ActivityRecorder interface {
	Append(ctx context.Context, leadID uuid.UUID, action, description string) error
}

type Service struct {
	repo      Repository
	activity  ActivityRecorder
	scheduler ReminderScheduler
	bus       events.Bus
	log       *logger.Logger
}

func NewService(repo Repository, activity ActivityRecorder, scheduler ReminderScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, activity: activity, scheduler: scheduler, bus: bus, log: log}
}

// Create records a follow-up for a lead and schedules a reminder at its due
// time. Reminder scheduling is best-effort; the follow-up itself is the
// source of truth.
func (s *Service) Create(ctx context.Context, leadID uuid.UUID, dueAt time.Time, details string) (domain.FollowUp, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.FollowUp{}, apperr.NotFound("lead not found")
		}
		return domain.FollowUp{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	followUp, err := s.repo.CreateFollowUp(ctx, repository.CreateFollowUpParams{
		LeadID:       leadID,
		FollowUpDate: dueAt,
		Details:      details,
	})
	if err != nil {
		return domain.FollowUp{}, apperr.Wrap(apperr.KindInternal, "failed to create follow-up", err)
	}

	description := fmt.Sprintf("Follow-up scheduled for %s", dueAt.Format("02 Jan 2006 15:04"))
	if err := s.activity.Append(ctx, leadID, "followup_scheduled", description); err != nil {
		s.log.DatabaseError("append_activity", err)
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleFollowUpReminder(ctx, followUp.ID, leadID, dueAt); err != nil {
			s.log.Error("followup_reminder_schedule_failed",
				"follow_up_id", followUp.ID.String(), "error", err.Error())
		}
	}

	s.bus.Publish(ctx, events.FollowUpScheduled{
		BaseEvent:  events.NewBaseEvent(),
		FollowUpID: followUp.ID,
		LeadID:     leadID,
		DueAt:      dueAt.Format(time.RFC3339),
	})

	return followUp, nil
}

// ListForLead returns a lead's follow-ups soonest first.
func (s *Service) ListForLead(ctx context.Context, leadID uuid.UUID) ([]domain.FollowUp, error) {
	followUps, err := s.repo.ListFollowUps(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list follow-ups", err)
	}
	return followUps, nil
}

// Next returns the lead's soonest upcoming follow-up, or a not-found error
// when none is scheduled.
func (s *Service) Next(ctx context.Context, leadID uuid.UUID) (domain.FollowUp, error) {
	next, err := s.repo.NextFollowUp(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.FollowUp{}, apperr.NotFound("no upcoming follow-up")
	}
	if err != nil {
		return domain.FollowUp{}, apperr.Wrap(apperr.KindInternal, "failed to load follow-up", err)
	}
	return next, nil
}

// ListInRange returns every follow-up due inside [from, to), soonest first.
func (s *Service) ListInRange(ctx context.Context, from, to time.Time) ([]domain.FollowUp, error) {
	if !to.After(from) {
		return nil, apperr.BadRequest("range end must be after range start")
	}
	followUps, err := s.repo.ListFollowUpsInRange(ctx, from, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list follow-ups", err)
	}
	return followUps, nil
}

// Delete removes a follow-up.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteFollowUp(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("follow-up not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete follow-up", err)
	}
	return nil
}
