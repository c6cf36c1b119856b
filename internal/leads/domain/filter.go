package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Filter is one set of independently selected list-view dimensions. An empty
// slice imposes no constraint on its dimension; values within a dimension
// combine with OR, dimensions combine with AND.
type Filter struct {
	Counsellors []string
	Stages      []string
	Categories  []string
	Search      string
	Alert       bool
}

// FilterEnv supplies the environment the alert predicate needs: the clock,
// the staleness threshold, and the last-activity timestamp per lead. Leads
// missing from LastActivity fall back to their creation timestamp.
type FilterEnv struct {
	Now          time.Time
	AlertAfter   time.Duration
	LastActivity map[uuid.UUID]time.Time
}

// Empty reports whether the filter imposes no constraint at all.
func (f Filter) Empty() bool {
	return len(f.Counsellors) == 0 && len(f.Stages) == 0 && len(f.Categories) == 0 &&
		strings.TrimSpace(f.Search) == "" && !f.Alert
}

// Apply returns the visible subset of leads under the filter. When the alert
// dimension is active the result is additionally sorted by descending
// staleness so the most overdue leads surface first.
func Apply(leads []Lead, f Filter, env FilterEnv) []Lead {
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if f.Matches(l, env) {
			out = append(out, l)
		}
	}

	if f.Alert {
		sort.SliceStable(out, func(i, j int) bool {
			return staleness(out[i], env) > staleness(out[j], env)
		})
	}
	return out
}

// Matches reports whether a single lead passes every active dimension.
func (f Filter) Matches(l Lead, env FilterEnv) bool {
	if !matchesAny(f.Counsellors, l.Counsellor) {
		return false
	}
	if len(f.Stages) > 0 && !matchesStage(f.Stages, l) {
		return false
	}
	if !matchesAny(f.Categories, l.Category) {
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" && !MatchesSearch(l, q) {
		return false
	}
	if f.Alert && staleness(l, env) <= env.AlertAfter {
		return false
	}
	return true
}

// MatchesSearch reports whether the query appears in any of the lead's
// searchable text fields. Matching is case-insensitive substring.
func MatchesSearch(l Lead, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{l.ParentsName, l.KidsName, l.Phone, l.SecondPhone, l.Email, l.Location, l.CurrentSchool} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// matchesStage accepts selections expressed as display names, and tolerates
// raw keys for callers that pass them instead.
func matchesStage(selected []string, l Lead) bool {
	for _, s := range selected {
		if s == l.StageDisplayName || s == l.Stage {
			return true
		}
	}
	return false
}

func matchesAny(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

func staleness(l Lead, env FilterEnv) time.Duration {
	last, ok := env.LastActivity[l.ID]
	if !ok || last.IsZero() {
		last = l.CreatedAt
	}
	return env.Now.Sub(last)
}
