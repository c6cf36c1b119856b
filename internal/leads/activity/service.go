// Package activity records and serves the append-only lead audit trail and
// the derived last-activity view behind it.
package activity

import (
	"context"
	"time"

	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"
	"admissions_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the persistence surface this service needs.
type Repository interface {
	AppendActivity(ctx context.Context, params repository.AppendActivityParams) error
	ListActivity(ctx context.Context, leadID uuid.UUID) ([]domain.ActivityEntry, error)
	LastActivityByLead(ctx context.Context) (map[uuid.UUID]time.Time, error)
	RefreshLastActivity(ctx context.Context) error
}

type Service struct {
	repo  Repository
	cache *Cache
	log   *logger.Logger
}

func NewService(repo Repository, cache *Cache, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Append writes one audit entry and invalidates the cached last-activity map.
func (s *Service) Append(ctx context.Context, leadID uuid.UUID, action, description string) error {
	err := s.repo.AppendActivity(ctx, repository.AppendActivityParams{
		LeadID:      leadID,
		MainAction:  action,
		Description: description,
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// History returns a lead's audit entries, newest first.
func (s *Service) History(ctx context.Context, leadID uuid.UUID) ([]domain.ActivityEntry, error) {
	return s.repo.ListActivity(ctx, leadID)
}

// LastActivity returns the newest audit timestamp per lead, serving from the
// cache when possible. A database failure degrades to an empty map so list
// views render without staleness data instead of erroring.
func (s *Service) LastActivity(ctx context.Context) map[uuid.UUID]time.Time {
	if cached, ok := s.cache.Get(ctx); ok {
		return cached
	}

	fresh, err := s.repo.LastActivityByLead(ctx)
	if err != nil {
		s.log.DatabaseError("last_activity_by_lead", err)
		return map[uuid.UUID]time.Time{}
	}
	s.cache.Set(ctx, fresh)
	return fresh
}

// RefreshView refreshes the materialized view backing LastActivity. The
// scheduler calls this periodically; failures are logged and retried on the
// next tick.
func (s *Service) RefreshView(ctx context.Context) {
	if err := s.repo.RefreshLastActivity(ctx); err != nil {
		s.log.DatabaseError("refresh_last_activity", err)
		return
	}
	s.cache.Invalidate(ctx)
}

// Invalidate drops the cached last-activity map.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx)
}
