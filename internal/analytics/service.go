package analytics

import (
	"context"
	"sort"
	"time"

	settingsdomain "admissions_backend/internal/settings/domain"
	"admissions_backend/platform/apperr"
	"admissions_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// SettingsProvider supplies the registry used to canonicalize stage buckets.
type SettingsProvider interface {
	Registry(ctx context.Context) *settingsdomain.Registry
}

// CounsellorPerformance is one counsellor's aggregate row.
type CounsellorPerformance struct {
	Counsellor string         `json:"counsellor"`
	TotalLeads int            `json:"totalLeads"`
	ByCategory map[string]int `json:"byCategory"`
	ByStage    map[string]int `json:"byStage"`
	Enrolled   int            `json:"enrolled"`
	FollowUps  int            `json:"followUps"`
}

// FunnelStage is one active pipeline stage with its lead count, in pipeline
// order.
type FunnelStage struct {
	StageKey  string `json:"stageKey"`
	StageName string `json:"stageName"`
	Color     string `json:"color"`
	Count     int    `json:"count"`
}

type Service struct {
	repo     *Repository
	settings SettingsProvider
	log      *logger.Logger
}

func NewService(repo *Repository, settings SettingsProvider, log *logger.Logger) *Service {
	return &Service{repo: repo, settings: settings, log: log}
}

// CounsellorPerformance aggregates lead counts, categories, stages, enrolled
// conversions, and pending follow-up load per counsellor for leads created
// inside [from, to). The three queries fan out concurrently.
func (s *Service) CounsellorPerformance(ctx context.Context, from, to time.Time) ([]CounsellorPerformance, error) {
	var (
		byCategory []groupCount
		byStage    []groupCount
		followUps  map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byCategory, err = s.repo.CountByCounsellorAndCategory(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		byStage, err = s.repo.CountByCounsellorAndStage(gctx, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		followUps, err = s.repo.UpcomingFollowUpLoad(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to aggregate counsellor performance", err)
	}

	reg := s.settings.Registry(ctx)
	perf := make(map[string]*CounsellorPerformance)
	row := func(counsellor string) *CounsellorPerformance {
		if counsellor == "" {
			counsellor = "Unassigned"
		}
		if p, ok := perf[counsellor]; ok {
			return p
		}
		p := &CounsellorPerformance{
			Counsellor: counsellor,
			ByCategory: map[string]int{},
			ByStage:    map[string]int{},
		}
		perf[counsellor] = p
		return p
	}

	for _, gc := range byCategory {
		p := row(gc.Group)
		p.ByCategory[gc.Subgroup] += gc.Count
		p.TotalLeads += gc.Count
		if gc.Subgroup == string(settingsdomain.CategoryEnrolled) {
			p.Enrolled += gc.Count
		}
	}
	for _, gc := range byStage {
		// Stored values may be legacy names; bucket by display name so rows
		// written before the key backfill still land together.
		key := reg.Resolve(gc.Subgroup)
		row(gc.Group).ByStage[reg.NameFromKey(key)] += gc.Count
	}
	for counsellor, count := range followUps {
		row(counsellor).FollowUps = count
	}

	out := make([]CounsellorPerformance, 0, len(perf))
	for _, p := range perf {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalLeads > out[j].TotalLeads })
	return out, nil
}

// Funnel returns lead counts per active stage in pipeline order for leads
// created inside [from, to). Counts for unknown stages are dropped from the
// funnel; they still appear in counsellor breakdowns.
func (s *Service) Funnel(ctx context.Context, from, to time.Time) ([]FunnelStage, error) {
	counts, err := s.repo.CountByStage(ctx, from, to)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to aggregate funnel", err)
	}

	reg := s.settings.Registry(ctx)
	byKey := make(map[string]int, len(counts))
	for stored, count := range counts {
		byKey[reg.Resolve(stored)] += count
	}

	stages := reg.ActiveStages()
	out := make([]FunnelStage, 0, len(stages))
	for _, st := range stages {
		key := settingsdomain.ResolvedKey(st)
		out = append(out, FunnelStage{
			StageKey:  key,
			StageName: st.Name,
			Color:     reg.ColorOf(key),
			Count:     byKey[key],
		})
	}
	return out, nil
}
