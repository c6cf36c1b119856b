package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func filterFixture() ([]Lead, FilterEnv) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	mk := func(counsellor, stageKey, stageName, category string, idleDays int) Lead {
		id := uuid.New()
		return Lead{
			ID:               id,
			ParentsName:      counsellor + " parent",
			Counsellor:       counsellor,
			Stage:            stageKey,
			StageDisplayName: stageName,
			Category:         category,
			CreatedAt:        now.Add(-time.Duration(idleDays) * 24 * time.Hour),
		}
	}

	leads := []Lead{
		mk("Priya", "connected", "Connected", "Warm", 1),
		mk("Priya", "meeting_booked", "Meeting Booked", "Hot", 5),
		mk("Rahul", "connected", "Connected", "Warm", 4),
		mk("Rahul", "no_response", "No Response", "Cold", 10),
	}

	env := FilterEnv{
		Now:          now,
		AlertAfter:   3 * 24 * time.Hour,
		LastActivity: map[uuid.UUID]time.Time{},
	}
	return leads, env
}

func TestApplyEmptyFilterKeepsAll(t *testing.T) {
	leads, env := filterFixture()
	got := Apply(leads, Filter{}, env)
	if len(got) != len(leads) {
		t.Fatalf("got %d leads, want %d", len(got), len(leads))
	}
}

func TestApplyDimensionsAndWithinOr(t *testing.T) {
	leads, env := filterFixture()

	got := Apply(leads, Filter{
		Counsellors: []string{"Priya", "Rahul"},
		Stages:      []string{"Connected"},
	}, env)

	if len(got) != 2 {
		t.Fatalf("got %d leads, want 2", len(got))
	}
	for _, l := range got {
		if l.Stage != "connected" {
			t.Errorf("lead %s has stage %q, want connected", l.ID, l.Stage)
		}
	}
}

// The filtered result for disjoint dimensions must equal the intersection of
// each dimension applied on its own.
func TestApplyIntersectionLaw(t *testing.T) {
	leads, env := filterFixture()

	combined := Apply(leads, Filter{
		Counsellors: []string{"Rahul"},
		Categories:  []string{"Warm", "Cold"},
	}, env)

	byCounsellor := Apply(leads, Filter{Counsellors: []string{"Rahul"}}, env)
	byCategory := Apply(leads, Filter{Categories: []string{"Warm", "Cold"}}, env)

	inBoth := func(l Lead) bool {
		found := false
		for _, c := range byCounsellor {
			if c.ID == l.ID {
				found = true
			}
		}
		if !found {
			return false
		}
		for _, c := range byCategory {
			if c.ID == l.ID {
				return true
			}
		}
		return false
	}

	if len(combined) == 0 {
		t.Fatal("combined filter unexpectedly empty")
	}
	for _, l := range combined {
		if !inBoth(l) {
			t.Errorf("lead %s in combined result but not in per-dimension intersection", l.ID)
		}
	}
	count := 0
	for _, l := range leads {
		if inBoth(l) {
			count++
		}
	}
	if count != len(combined) {
		t.Errorf("intersection has %d leads, combined filter has %d", count, len(combined))
	}
}

func TestApplyAlertSortsByStalenessDescending(t *testing.T) {
	leads, env := filterFixture()

	got := Apply(leads, Filter{Alert: true}, env)

	if len(got) != 3 {
		t.Fatalf("got %d stale leads, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("leads not sorted by descending staleness at index %d", i)
		}
	}
	if got[0].Stage != "no_response" {
		t.Errorf("most overdue lead first, got stage %q", got[0].Stage)
	}
}

func TestApplyAlertUsesLastActivityOverCreation(t *testing.T) {
	leads, env := filterFixture()
	// The 10-day-old lead logged activity an hour ago; it is no longer stale.
	env.LastActivity[leads[3].ID] = env.Now.Add(-time.Hour)

	got := Apply(leads, Filter{Alert: true}, env)

	for _, l := range got {
		if l.ID == leads[3].ID {
			t.Fatal("recently active lead must not qualify for the alert filter")
		}
	}
}

func TestMatchesSearch(t *testing.T) {
	l := Lead{ParentsName: "Asha Rao", KidsName: "Dev", Phone: "9876543210", Email: "asha@example.com"}

	for _, q := range []string{"asha", "RAO", "98765", "dev", "example.com"} {
		if !MatchesSearch(l, q) {
			t.Errorf("query %q should match", q)
		}
	}
	if MatchesSearch(l, "zzz") {
		t.Error("query zzz should not match")
	}
	if !MatchesSearch(l, "  ") {
		t.Error("blank query imposes no constraint")
	}
}
