package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"admissions_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

const leadColumns = `
	id, parents_name, kids_name, phone, second_phone, email, location, grade,
	stage, score, category, counsellor, offer, notes, source, occupation,
	current_school, meet_datetime, meet_link, visit_datetime, visit_location,
	reg_fees, enrollment_status, stage_responses, previous_stage, created_at, updated_at`

// prefixedLeadColumns qualifies the shared column list with a table alias for
// joined queries.
func prefixedLeadColumns(alias string) string {
	cols := strings.Split(leadColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (domain.RawLead, error) {
	var l domain.RawLead
	var responses []byte
	err := row.Scan(
		&l.ID, &l.ParentsName, &l.KidsName, &l.Phone, &l.SecondPhone, &l.Email,
		&l.Location, &l.Grade, &l.Stage, &l.Score, &l.Category, &l.Counsellor,
		&l.Offer, &l.Notes, &l.Source, &l.Occupation, &l.CurrentSchool,
		&l.MeetDatetime, &l.MeetLink, &l.VisitDatetime, &l.VisitLocation,
		&l.RegFees, &l.EnrollmentStatus, &responses, &l.PreviousStage,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.RawLead{}, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &l.StageResponses); err != nil {
			// Malformed rows degrade to no responses rather than failing the read.
			l.StageResponses = nil
		}
	}
	return l, nil
}

type CreateLeadParams struct {
	ParentsName      string
	KidsName         string
	Phone            string
	SecondPhone      string
	Email            string
	Location         string
	Grade            string
	Stage            string
	Score            int
	Category         string
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
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (domain.RawLead, error) {
	responses, err := json.Marshal(orEmpty(params.StageResponses))
	if err != nil {
		return domain.RawLead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			parents_name, kids_name, phone, second_phone, email, location, grade,
			stage, score, category, counsellor, offer, notes, source, occupation,
			current_school, meet_datetime, meet_link, visit_datetime, visit_location,
			reg_fees, enrollment_status, stage_responses
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23
		)
		RETURNING `+leadColumns,
		params.ParentsName, params.KidsName, params.Phone, params.SecondPhone,
		params.Email, params.Location, params.Grade, params.Stage, params.Score,
		params.Category, params.Counsellor, params.Offer, params.Notes,
		params.Source, params.Occupation, params.CurrentSchool,
		params.MeetDatetime, params.MeetLink, params.VisitDatetime,
		params.VisitLocation, params.RegFees, params.EnrollmentStatus, responses,
	)
	return scanLead(row)
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (domain.RawLead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RawLead{}, ErrNotFound
	}
	return lead, err
}

type ListLeadsParams struct {
	Category string
	Limit    int
	Offset   int
}

// ListLeads fetches a batch, optionally restricted to one category. Finer
// filtering (counsellor, stage, search, staleness) happens in memory over the
// normalized leads.
func (r *Repository) ListLeads(ctx context.Context, params ListLeadsParams) ([]domain.RawLead, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 500
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []any{}
	if params.Category != "" {
		query += ` WHERE category = $1`
		args = append(args, params.Category)
	}
	query += ` ORDER BY created_at DESC`
	if params.Category != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
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

type UpdateLeadParams struct {
	ParentsName      *string
	KidsName         *string
	Phone            *string
	SecondPhone      *string
	Email            *string
	Location         *string
	Grade            *string
	Counsellor       *string
	Offer            *string
	Notes            *string
	Source           *string
	Occupation       *string
	CurrentSchool    *string
	MeetDatetime     *time.Time
	MeetLink         *string
	VisitDatetime    *time.Time
	VisitLocation    *string
	RegFees          *string
	EnrollmentStatus *string
	StageResponses   map[string]string
}

// UpdateLead patches the lead's non-stage fields. Stage changes go through
// UpdateLeadStage so derived fields and the previous-stage pointer stay
// consistent.
func (r *Repository) UpdateLead(ctx context.Context, id uuid.UUID, params UpdateLeadParams) (domain.RawLead, error) {
	var responses []byte
	if params.StageResponses != nil {
		var err error
		responses, err = json.Marshal(params.StageResponses)
		if err != nil {
			return domain.RawLead{}, err
		}
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			parents_name = COALESCE($2, parents_name),
			kids_name = COALESCE($3, kids_name),
			phone = COALESCE($4, phone),
			second_phone = COALESCE($5, second_phone),
			email = COALESCE($6, email),
			location = COALESCE($7, location),
			grade = COALESCE($8, grade),
			counsellor = COALESCE($9, counsellor),
			offer = COALESCE($10, offer),
			notes = COALESCE($11, notes),
			source = COALESCE($12, source),
			occupation = COALESCE($13, occupation),
			current_school = COALESCE($14, current_school),
			meet_datetime = COALESCE($15, meet_datetime),
			meet_link = COALESCE($16, meet_link),
			visit_datetime = COALESCE($17, visit_datetime),
			visit_location = COALESCE($18, visit_location),
			reg_fees = COALESCE($19, reg_fees),
			enrollment_status = COALESCE($20, enrollment_status),
			stage_responses = COALESCE($21, stage_responses),
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, params.ParentsName, params.KidsName, params.Phone, params.SecondPhone,
		params.Email, params.Location, params.Grade, params.Counsellor,
		params.Offer, params.Notes, params.Source, params.Occupation,
		params.CurrentSchool, params.MeetDatetime, params.MeetLink,
		params.VisitDatetime, params.VisitLocation, params.RegFees,
		params.EnrollmentStatus, responses,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RawLead{}, ErrNotFound
	}
	return lead, err
}

type UpdateStageParams struct {
	Stage            string
	Score            int
	Category         string
	PreviousStage    *string
	SetPreviousStage bool
}

// UpdateLeadStage persists a stage transition as one atomic write. The
// previous_stage column is only touched when SetPreviousStage is true.
func (r *Repository) UpdateLeadStage(ctx context.Context, id uuid.UUID, params UpdateStageParams) (domain.RawLead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET
			stage = $2,
			score = $3,
			category = $4,
			previous_stage = CASE WHEN $5 THEN $6 ELSE previous_stage END,
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, params.Stage, params.Score, params.Category,
		params.SetPreviousStage, params.PreviousStage,
	)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RawLead{}, ErrNotFound
	}
	return lead, err
}

// DeleteLeads removes the given leads; their custom-field values go with them
// via the foreign key cascade. Audit log rows are kept.
func (r *Repository) DeleteLeads(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListPhones returns every stored primary phone number, used to seed the
// importer's duplicate-detection set.
func (r *Repository) ListPhones(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT phone FROM leads WHERE phone <> ''`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	phones := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
