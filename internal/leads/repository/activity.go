package repository

import (
	"context"
	"time"

	"admissions_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// logTableName tags audit rows so the shared logs table can serve other
// record types later.
const logTableName = "Leads"

type AppendActivityParams struct {
	LeadID      uuid.UUID
	MainAction  string
	Description string
}

// AppendActivity inserts one append-only audit row. Rows are never updated or
// deleted by the application.
func (r *Repository) AppendActivity(ctx context.Context, params AppendActivityParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO logs (table_name, record_id, main_action, description, action_timestamp)
		VALUES ($1, $2, $3, $4, now())
	`, logTableName, params.LeadID, params.MainAction, params.Description)
	return err
}

// ListActivity returns a lead's audit history, newest first.
func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID) ([]domain.ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, record_id, main_action, description, action_timestamp
		FROM logs
		WHERE table_name = $1 AND record_id = $2
		ORDER BY action_timestamp DESC
	`, logTableName, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ActivityEntry, 0)
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.MainAction, &e.Description, &e.ActionTimestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastActivityByLead reads the materialized last-activity view instead of
// scanning logs per lead.
func (r *Repository) LastActivityByLead(ctx context.Context) (map[uuid.UUID]time.Time, error) {
	rows, err := r.pool.Query(ctx, `SELECT record_id, last_activity FROM last_activity_by_lead`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]time.Time)
	for rows.Next() {
		var id uuid.UUID
		var ts time.Time
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, err
		}
		out[id] = ts
	}
	return out, rows.Err()
}

// RefreshLastActivity refreshes the materialized view after a burst of log
// writes. Concurrent refresh keeps reads available.
func (r *Repository) RefreshLastActivity(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY last_activity_by_lead`)
	return err
}

// StaleLeads returns leads whose newest audit entry (or creation, when no
// entry exists) is older than the threshold, most overdue first. Used by the
// scheduler's digest job.
func (r *Repository) StaleLeads(ctx context.Context, olderThan time.Duration) ([]domain.RawLead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prefixedLeadColumns("l")+`
		FROM leads l
		LEFT JOIN last_activity_by_lead a ON a.record_id = l.id
		WHERE COALESCE(a.last_activity, l.created_at) < now() - $1::interval
		ORDER BY COALESCE(a.last_activity, l.created_at) ASC
	`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]domain.RawLead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
