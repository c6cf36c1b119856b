package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"admissions_backend/internal/settings/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("settings record not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// =====================================
// Stages
// =====================================

func (r *Repository) ListStages(ctx context.Context) ([]domain.Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, stage_key, name, color, score, category, is_active, sort_order, created_at, updated_at
		FROM stages
		ORDER BY sort_order ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]domain.Stage, 0)
	for rows.Next() {
		var s domain.Stage
		var category string
		if err := rows.Scan(&s.ID, &s.StageKey, &s.Name, &s.Color, &s.Score, &category, &s.IsActive, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Category = domain.Category(category)
		stages = append(stages, s)
	}

	return stages, rows.Err()
}

type CreateStageParams struct {
	StageKey string
	Name     string
	Color    string
	Score    int
	Category domain.Category
}

func (r *Repository) CreateStage(ctx context.Context, params CreateStageParams) (domain.Stage, error) {
	var s domain.Stage
	var category string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO stages (stage_key, name, color, score, category, is_active, sort_order)
		VALUES ($1, $2, $3, $4, $5, true, COALESCE((SELECT MAX(sort_order) FROM stages), 0) + 1)
		RETURNING id, stage_key, name, color, score, category, is_active, sort_order, created_at, updated_at
	`, params.StageKey, params.Name, params.Color, params.Score, string(params.Category)).Scan(
		&s.ID, &s.StageKey, &s.Name, &s.Color, &s.Score, &category, &s.IsActive, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.Stage{}, err
	}
	s.Category = domain.Category(category)
	return s, nil
}

type UpdateStageParams struct {
	Name     *string
	Color    *string
	Score    *int
	Category *domain.Category
}

func (r *Repository) UpdateStage(ctx context.Context, id uuid.UUID, params UpdateStageParams) (domain.Stage, error) {
	var s domain.Stage
	var category string
	err := r.pool.QueryRow(ctx, `
		UPDATE stages SET
			name = COALESCE($2, name),
			color = COALESCE($3, color),
			score = COALESCE($4, score),
			category = COALESCE($5, category),
			updated_at = now()
		WHERE id = $1
		RETURNING id, stage_key, name, color, score, category, is_active, sort_order, created_at, updated_at
	`, id, params.Name, params.Color, params.Score, (*string)(params.Category)).Scan(
		&s.ID, &s.StageKey, &s.Name, &s.Color, &s.Score, &category, &s.IsActive, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Stage{}, ErrNotFound
	}
	if err != nil {
		return domain.Stage{}, err
	}
	s.Category = domain.Category(category)
	return s, nil
}

// ToggleStage flips is_active and returns the new value.
func (r *Repository) ToggleStage(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `
		UPDATE stages SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING is_active
	`, id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	return active, err
}

// SwapStageOrder exchanges sort_order with the adjacent stage in the given
// direction ("up" or "down") inside one transaction. Reordering is a swap of
// adjacent values, never a full renumbering.
func (r *Repository) SwapStageOrder(ctx context.Context, id uuid.UUID, direction string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var currentOrder int
	if err := tx.QueryRow(ctx, `SELECT sort_order FROM stages WHERE id = $1 FOR UPDATE`, id).Scan(&currentOrder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	neighborQuery := `
		SELECT id, sort_order FROM stages
		WHERE sort_order > $1
		ORDER BY sort_order ASC
		LIMIT 1 FOR UPDATE
	`
	if direction == "up" {
		neighborQuery = `
			SELECT id, sort_order FROM stages
			WHERE sort_order < $1
			ORDER BY sort_order DESC
			LIMIT 1 FOR UPDATE
		`
	}

	var neighborID uuid.UUID
	var neighborOrder int
	if err := tx.QueryRow(ctx, neighborQuery, currentOrder).Scan(&neighborID, &neighborOrder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already at the edge of the pipeline; nothing to swap.
			return nil
		}
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE stages SET sort_order = $2, updated_at = now() WHERE id = $1`, id, neighborOrder); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE stages SET sort_order = $2, updated_at = now() WHERE id = $1`, neighborID, currentOrder); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// =====================================
// Counsellors
// =====================================

func (r *Repository) ListCounsellors(ctx context.Context, activeOnly bool) ([]domain.Counsellor, error) {
	query := `
		SELECT id, name, email, phone, is_active, sort_order
		FROM counsellors
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Counsellor, 0)
	for rows.Next() {
		var c domain.Counsellor
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsActive, &c.SortOrder); err != nil {
			return nil, err
		}
		items = append(items, c)
	}

	return items, rows.Err()
}

type CounsellorParams struct {
	Name  string
	Email string
	Phone string
}

func (r *Repository) CreateCounsellor(ctx context.Context, params CounsellorParams) (domain.Counsellor, error) {
	var c domain.Counsellor
	err := r.pool.QueryRow(ctx, `
		INSERT INTO counsellors (name, email, phone, is_active, sort_order)
		VALUES ($1, $2, $3, true, COALESCE((SELECT MAX(sort_order) FROM counsellors), 0) + 1)
		RETURNING id, name, email, phone, is_active, sort_order
	`, params.Name, params.Email, params.Phone).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsActive, &c.SortOrder)
	return c, err
}

func (r *Repository) UpdateCounsellor(ctx context.Context, id uuid.UUID, params CounsellorParams) (domain.Counsellor, error) {
	var c domain.Counsellor
	err := r.pool.QueryRow(ctx, `
		UPDATE counsellors SET name = $2, email = $3, phone = $4
		WHERE id = $1
		RETURNING id, name, email, phone, is_active, sort_order
	`, id, params.Name, params.Email, params.Phone).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.IsActive, &c.SortOrder)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Counsellor{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) ToggleCounsellor(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `
		UPDATE counsellors SET is_active = NOT is_active WHERE id = $1 RETURNING is_active
	`, id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	return active, err
}

// =====================================
// Sources and Grades (same shape)
// =====================================

func (r *Repository) ListSources(ctx context.Context, activeOnly bool) ([]domain.Source, error) {
	items, err := r.listNamed(ctx, "sources", activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Source, len(items))
	for i, item := range items {
		out[i] = domain.Source(item)
	}
	return out, nil
}

func (r *Repository) ListGrades(ctx context.Context, activeOnly bool) ([]domain.Grade, error) {
	items, err := r.listNamed(ctx, "grades", activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Grade, len(items))
	for i, item := range items {
		out[i] = domain.Grade(item)
	}
	return out, nil
}

type namedRecord struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	SortOrder int
}

func (r *Repository) listNamed(ctx context.Context, table string, activeOnly bool) ([]namedRecord, error) {
	query := fmt.Sprintf(`SELECT id, name, is_active, sort_order FROM %s`, table)
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY sort_order ASC, name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]namedRecord, 0)
	for rows.Next() {
		var n namedRecord
		if err := rows.Scan(&n.ID, &n.Name, &n.IsActive, &n.SortOrder); err != nil {
			return nil, err
		}
		items = append(items, n)
	}

	return items, rows.Err()
}

func (r *Repository) CreateNamed(ctx context.Context, table, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, is_active, sort_order)
		VALUES ($1, true, COALESCE((SELECT MAX(sort_order) FROM %s), 0) + 1)
		RETURNING id
	`, table, table), name).Scan(&id)
	return id, err
}

func (r *Repository) ToggleNamed(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s SET is_active = NOT is_active WHERE id = $1 RETURNING is_active
	`, table), id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	return active, err
}

// =====================================
// Form fields
// =====================================

func (r *Repository) ListFormFields(ctx context.Context, activeOnly bool) ([]domain.FormField, error) {
	query := `
		SELECT id, field_key, label, field_type, options, is_active, sort_order
		FROM form_fields
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY sort_order ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.FormField, 0)
	for rows.Next() {
		var f domain.FormField
		var options []byte
		if err := rows.Scan(&f.ID, &f.FieldKey, &f.Label, &f.FieldType, &options, &f.IsActive, &f.SortOrder); err != nil {
			return nil, err
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &f.Options); err != nil {
				f.Options = nil
			}
		}
		items = append(items, f)
	}

	return items, rows.Err()
}

type FormFieldParams struct {
	FieldKey  string
	Label     string
	FieldType string
	Options   []string
}

func (r *Repository) CreateFormField(ctx context.Context, params FormFieldParams) (domain.FormField, error) {
	options, err := json.Marshal(params.Options)
	if err != nil {
		return domain.FormField{}, err
	}

	var f domain.FormField
	var raw []byte
	err = r.pool.QueryRow(ctx, `
		INSERT INTO form_fields (field_key, label, field_type, options, is_active, sort_order)
		VALUES ($1, $2, $3, $4, true, COALESCE((SELECT MAX(sort_order) FROM form_fields), 0) + 1)
		RETURNING id, field_key, label, field_type, options, is_active, sort_order
	`, params.FieldKey, params.Label, params.FieldType, options).Scan(
		&f.ID, &f.FieldKey, &f.Label, &f.FieldType, &raw, &f.IsActive, &f.SortOrder,
	)
	if err != nil {
		return domain.FormField{}, err
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &f.Options)
	}
	return f, nil
}

func (r *Repository) DeleteFormField(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM form_fields WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies database connectivity for health checks.
func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.pool.Ping(ctx)
}
