package repository

import (
	"context"

	"github.com/google/uuid"
)

// ListFieldValues returns one lead's custom-field values as a key-value map.
func (r *Repository) ListFieldValues(ctx context.Context, leadID uuid.UUID) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT field_key, value FROM lead_field_values WHERE lead_id = $1
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

// ListFieldValuesForLeads fetches custom-field values for a batch of leads in
// one query, keyed by lead id. Leads without values are absent from the map.
func (r *Repository) ListFieldValuesForLeads(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]map[string]string, error) {
	if len(leadIDs) == 0 {
		return map[uuid.UUID]map[string]string{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, field_key, value FROM lead_field_values WHERE lead_id = ANY($1)
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]map[string]string)
	for rows.Next() {
		var leadID uuid.UUID
		var key, value string
		if err := rows.Scan(&leadID, &key, &value); err != nil {
			return nil, err
		}
		if out[leadID] == nil {
			out[leadID] = make(map[string]string)
		}
		out[leadID][key] = value
	}
	return out, rows.Err()
}

// ReplaceFieldValues overwrites a lead's custom-field values in one
// transaction. Passing an empty map clears them.
func (r *Repository) ReplaceFieldValues(ctx context.Context, leadID uuid.UUID, values map[string]string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM lead_field_values WHERE lead_id = $1`, leadID); err != nil {
		return err
	}
	for key, value := range values {
		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_field_values (lead_id, field_key, value) VALUES ($1, $2, $3)
		`, leadID, key, value); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
