package repository

import (
	"context"
	"errors"
	"time"

	"admissions_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateFollowUpParams struct {
	LeadID       uuid.UUID
	FollowUpDate time.Time
	Details      string
}

func (r *Repository) CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (domain.FollowUp, error) {
	var f domain.FollowUp
	err := r.pool.QueryRow(ctx, `
		INSERT INTO follow_ups (lead_id, follow_up_date, details)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, follow_up_date, details, created_at
	`, params.LeadID, params.FollowUpDate, params.Details).Scan(
		&f.ID, &f.LeadID, &f.FollowUpDate, &f.Details, &f.CreatedAt,
	)
	return f, err
}

// ListFollowUps returns a lead's follow-ups soonest first.
func (r *Repository) ListFollowUps(ctx context.Context, leadID uuid.UUID) ([]domain.FollowUp, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, follow_up_date, details, created_at
		FROM follow_ups
		WHERE lead_id = $1
		ORDER BY follow_up_date ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFollowUps(rows)
}

// GetFollowUp returns a single follow-up by id.
func (r *Repository) GetFollowUp(ctx context.Context, id uuid.UUID) (domain.FollowUp, error) {
	var f domain.FollowUp
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, follow_up_date, details, created_at
		FROM follow_ups
		WHERE id = $1
	`, id).Scan(&f.ID, &f.LeadID, &f.FollowUpDate, &f.Details, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FollowUp{}, ErrNotFound
	}
	return f, err
}

// NextFollowUp returns the lead's soonest upcoming follow-up.
func (r *Repository) NextFollowUp(ctx context.Context, leadID uuid.UUID) (domain.FollowUp, error) {
	var f domain.FollowUp
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, follow_up_date, details, created_at
		FROM follow_ups
		WHERE lead_id = $1 AND follow_up_date >= now()
		ORDER BY follow_up_date ASC
		LIMIT 1
	`, leadID).Scan(&f.ID, &f.LeadID, &f.FollowUpDate, &f.Details, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FollowUp{}, ErrNotFound
	}
	return f, err
}

// ListFollowUpsInRange returns every follow-up scheduled inside [from, to),
// soonest first, across all leads.
func (r *Repository) ListFollowUpsInRange(ctx context.Context, from, to time.Time) ([]domain.FollowUp, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, follow_up_date, details, created_at
		FROM follow_ups
		WHERE follow_up_date >= $1 AND follow_up_date < $2
		ORDER BY follow_up_date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFollowUps(rows)
}

func (r *Repository) DeleteFollowUp(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM follow_ups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFollowUps(rows pgx.Rows) ([]domain.FollowUp, error) {
	followUps := make([]domain.FollowUp, 0)
	for rows.Next() {
		var f domain.FollowUp
		if err := rows.Scan(&f.ID, &f.LeadID, &f.FollowUpDate, &f.Details, &f.CreatedAt); err != nil {
			return nil, err
		}
		followUps = append(followUps, f)
	}
	return followUps, rows.Err()
}
