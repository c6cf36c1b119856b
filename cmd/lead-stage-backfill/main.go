// Command lead-stage-backfill rewrites legacy stage display names stored in
// the leads table to their canonical stage keys, and realigns the derived
// score and category columns with the current stage settings. Safe to run
// repeatedly; rows already canonical are left untouched.
package main

import (
	"context"

	"admissions_backend/internal/events"
	"admissions_backend/internal/settings"
	"admissions_backend/platform/config"
	"admissions_backend/platform/db"
	"admissions_backend/platform/logger"
	"admissions_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type leadStage struct {
	id       uuid.UUID
	stage    string
	score    int
	category string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead stage backfill")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)
	settingsModule := settings.NewModule(pool, bus, validator.New(), log)
	registry := settingsModule.Registry(ctx)

	leads, err := listLeadStages(ctx, pool)
	if err != nil {
		log.Error("failed to list leads", "error", err)
		panic("failed to list leads: " + err.Error())
	}

	var rewritten, unresolved int
	for _, lead := range leads {
		key := registry.Resolve(lead.stage)
		if _, known := registry.Record(key); !known {
			unresolved++
			log.Warn("stage not in settings, leaving as-is", "leadId", lead.id, "stage", lead.stage)
		}

		score := registry.ScoreOf(key)
		category := string(registry.CategoryOf(key))
		if key == lead.stage && score == lead.score && category == lead.category {
			continue
		}

		if err := updateLeadStage(ctx, pool, lead.id, key, score, category); err != nil {
			log.Error("failed to update lead", "leadId", lead.id, "error", err)
			continue
		}

		rewritten++
		if key != lead.stage {
			log.Info("stage canonicalized", "leadId", lead.id, "from", lead.stage, "to", key)
		}
	}

	log.Info("lead stage backfill complete",
		"scanned", len(leads),
		"rewritten", rewritten,
		"unresolved", unresolved,
	)
}

func listLeadStages(ctx context.Context, pool *pgxpool.Pool) ([]leadStage, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, stage, score, category
		FROM leads
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]leadStage, 0)
	for rows.Next() {
		var l leadStage
		if err := rows.Scan(&l.id, &l.stage, &l.score, &l.category); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func updateLeadStage(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, stage string, score int, category string) error {
	_, err := pool.Exec(ctx, `
		UPDATE leads
		SET stage = $2, score = $3, category = $4, updated_at = now()
		WHERE id = $1
	`, id, stage, score, category)
	return err
}
