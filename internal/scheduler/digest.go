package scheduler

import (
	"context"
	"strings"
	"time"

	"admissions_backend/internal/email"
	leaddomain "admissions_backend/internal/leads/domain"
	leadrepo "admissions_backend/internal/leads/repository"
	settingsdomain "admissions_backend/internal/settings/domain"
	settingsrepo "admissions_backend/internal/settings/repository"
	"admissions_backend/platform/config"
	"admissions_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsProvider hands out the current stage registry snapshot.
type SettingsProvider interface {
	Registry(ctx context.Context) *settingsdomain.Registry
}

// StaleLeadDigest periodically refreshes the last-activity view and mails
// each counsellor a digest of their leads that have gone quiet.
type StaleLeadDigest struct {
	leads      *leadrepo.Repository
	settings   *settingsrepo.Repository
	registry   SettingsProvider
	sender     email.Sender
	interval   time.Duration
	staleAfter time.Duration
	log        *logger.Logger
}

func NewStaleLeadDigest(cfg config.SchedulerConfig, pool *pgxpool.Pool, registry SettingsProvider, sender email.Sender, log *logger.Logger) *StaleLeadDigest {
	interval := cfg.GetDigestInterval()
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	staleAfter := cfg.GetAlertStaleAfter()
	if staleAfter <= 0 {
		staleAfter = 72 * time.Hour
	}

	return &StaleLeadDigest{
		leads:      leadrepo.New(pool),
		settings:   settingsrepo.New(pool),
		registry:   registry,
		sender:     sender,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log,
	}
}

func (d *StaleLeadDigest) Run(ctx context.Context) {
	if d == nil || d.leads == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := d.dispatch(ctx); err != nil {
			d.log.Warn("stale lead digest failed", "error", err)
		}
	}
}

func (d *StaleLeadDigest) dispatch(ctx context.Context) error {
	if err := d.leads.RefreshLastActivity(ctx); err != nil {
		d.log.Warn("last activity refresh failed", "error", err)
	}

	stale, err := d.leads.StaleLeads(ctx, d.staleAfter)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	lastActivity, err := d.leads.LastActivityByLead(ctx)
	if err != nil {
		d.log.Warn("last activity lookup failed", "error", err)
		lastActivity = nil
	}

	reg := d.registry.Registry(ctx)
	now := time.Now()

	byCounsellor := make(map[string][]email.DigestLead)
	for _, lead := range stale {
		counsellor := strings.TrimSpace(lead.Counsellor)
		if counsellor == "" {
			continue
		}

		idleSince := lead.CreatedAt
		if at, ok := lastActivity[lead.ID]; ok {
			idleSince = at
		}

		byCounsellor[counsellor] = append(byCounsellor[counsellor], email.DigestLead{
			ParentName: lead.ParentsName,
			Phone:      lead.Phone,
			StageName:  stageName(reg, lead),
			IdleDays:   int(now.Sub(idleSince).Hours() / 24),
		})
	}

	counsellors, err := d.settings.ListCounsellors(ctx, true)
	if err != nil {
		return err
	}

	for _, c := range counsellors {
		leads := byCounsellor[strings.TrimSpace(c.Name)]
		if len(leads) == 0 || strings.TrimSpace(c.Email) == "" {
			continue
		}

		if err := d.sender.SendStaleLeadDigest(ctx, strings.TrimSpace(c.Email), c.Name, leads); err != nil {
			d.log.Warn("stale lead digest send failed", "counsellor", c.Name, "error", err)
		}
	}

	return nil
}

func stageName(reg *settingsdomain.Registry, lead leaddomain.RawLead) string {
	if reg == nil {
		return lead.Stage
	}
	return reg.NameFromKey(reg.Resolve(lead.Stage))
}
