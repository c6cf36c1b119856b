// Package analytics aggregates per-counsellor performance and pipeline
// funnel counts. Date ranges operate on the raw created_at timestamp.
package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// groupCount is one (group, subgroup) bucket.
type groupCount struct {
	Group    string
	Subgroup string
	Count    int
}

func (r *Repository) countGrouped(ctx context.Context, query string, from, to time.Time) ([]groupCount, error) {
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]groupCount, 0)
	for rows.Next() {
		var gc groupCount
		if err := rows.Scan(&gc.Group, &gc.Subgroup, &gc.Count); err != nil {
			return nil, err
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

// CountByCounsellorAndCategory buckets leads created inside [from, to) by
// counsellor and persisted category.
func (r *Repository) CountByCounsellorAndCategory(ctx context.Context, from, to time.Time) ([]groupCount, error) {
	return r.countGrouped(ctx, `
		SELECT counsellor, category, COUNT(*)
		FROM leads
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY counsellor, category
	`, from, to)
}

// CountByCounsellorAndStage buckets leads by counsellor and stored stage
// value. Stage values may be legacy display names; the service resolves them.
func (r *Repository) CountByCounsellorAndStage(ctx context.Context, from, to time.Time) ([]groupCount, error) {
	return r.countGrouped(ctx, `
		SELECT counsellor, stage, COUNT(*)
		FROM leads
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY counsellor, stage
	`, from, to)
}

// CountByStage buckets all leads created inside [from, to) by stored stage.
func (r *Repository) CountByStage(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stage, COUNT(*)
		FROM leads
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY stage
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		out[stage] += count
	}
	return out, rows.Err()
}

// UpcomingFollowUpLoad counts pending follow-ups per counsellor.
func (r *Repository) UpcomingFollowUpLoad(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.counsellor, COUNT(*)
		FROM follow_ups f
		JOIN leads l ON l.id = f.lead_id
		WHERE f.follow_up_date >= now()
		GROUP BY l.counsellor
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var counsellor string
		var count int
		if err := rows.Scan(&counsellor, &count); err != nil {
			return nil, err
		}
		out[counsellor] = count
	}
	return out, rows.Err()
}
