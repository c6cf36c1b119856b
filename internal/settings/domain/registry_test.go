package domain

import (
	"testing"
)

func stageFixtures() []Stage {
	return []Stage{
		{StageKey: "new_lead", Name: "New Lead", Color: "#3B82F6", Score: 20, Category: CategoryNew, IsActive: true, SortOrder: 1},
		{StageKey: "connected", Name: "Connected", Color: "#8B5CF6", Score: 30, Category: CategoryWarm, IsActive: true, SortOrder: 2},
		{StageKey: "meeting_booked", Name: "Meeting Booked", Color: "#F59E0B", Score: 50, Category: CategoryHot, IsActive: true, SortOrder: 3},
		// Legacy stage without a stage_key; identified by the name fallback.
		{StageKey: "", Name: "Visit Booked", Color: "#F97316", Score: 60, Category: CategoryHot, IsActive: true, SortOrder: 4},
		{StageKey: "no_response", Name: "No Response", Color: "#6B7280", Score: 5, Category: CategoryCold, IsActive: true, SortOrder: 5},
		{StageKey: "admission", Name: "Admission", Color: "#10B981", Score: 100, Category: CategoryEnrolled, IsActive: true, SortOrder: 6},
		{StageKey: "old_webinar", Name: "Webinar", Score: 15, Category: CategoryWarm, IsActive: false, SortOrder: 7},
	}
}

func TestFallbackKey(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Visit Booked", "visitbooked"},
		{"No Response", "noresponse"},
		{"  Follow-Up #2 ", "followup2"},
		{"", ""},
		{"---", ""},
	}

	for _, tc := range cases {
		if got := FallbackKey(tc.name); got != tc.want {
			t.Errorf("FallbackKey(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := BuildRegistry(stageFixtures())

	for _, s := range stageFixtures() {
		key, ok := reg.KeyFromName(s.Name)
		if !ok {
			t.Fatalf("KeyFromName(%q) not found", s.Name)
		}

		want := s.StageKey
		if want == "" {
			want = FallbackKey(s.Name)
		}
		if key != want {
			t.Errorf("KeyFromName(%q) = %q, want %q", s.Name, key, want)
		}

		if name := reg.NameFromKey(key); name != s.Name {
			t.Errorf("NameFromKey(%q) = %q, want %q", key, name, s.Name)
		}
	}
}

func TestRegistryUnknownKeyDefaults(t *testing.T) {
	reg := BuildRegistry(stageFixtures())

	const key = "deleted_stage_xyz"
	if got := reg.ColorOf(key); got != DefaultColor {
		t.Errorf("ColorOf = %q, want default %q", got, DefaultColor)
	}
	if got := reg.ScoreOf(key); got != DefaultScore {
		t.Errorf("ScoreOf = %d, want default %d", got, DefaultScore)
	}
	if got := reg.CategoryOf(key); got != DefaultCategory {
		t.Errorf("CategoryOf = %q, want default %q", got, DefaultCategory)
	}
	if got := reg.NameFromKey(key); got != key {
		t.Errorf("NameFromKey should pass through unknown keys, got %q", got)
	}
}

func TestRegistryResolveThreeWay(t *testing.T) {
	reg := BuildRegistry(stageFixtures())

	cases := []struct {
		in   string
		want string
	}{
		{"connected", "connected"},       // already a key
		{"Connected", "connected"},       // legacy display name
		{"Visit Booked", "visitbooked"},  // name of a key-less stage
		{"visitbooked", "visitbooked"},   // fallback key used as-is
		{"something_else", "something_else"}, // unresolvable: pass through
	}

	for _, tc := range cases {
		if got := reg.Resolve(tc.in); got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegistryActiveOrderingAndFirst(t *testing.T) {
	// Shuffle sort order on input; the registry must sort.
	stages := stageFixtures()
	stages[0], stages[3] = stages[3], stages[0]

	reg := BuildRegistry(stages)

	active := reg.ActiveStages()
	if len(active) != 6 {
		t.Fatalf("expected 6 active stages, got %d", len(active))
	}
	for i := 1; i < len(active); i++ {
		if active[i-1].SortOrder > active[i].SortOrder {
			t.Fatalf("active stages not sorted at %d", i)
		}
	}

	first, ok := reg.FirstActiveKey()
	if !ok || first != "new_lead" {
		t.Errorf("FirstActiveKey = %q, %v; want new_lead, true", first, ok)
	}
}

func TestRegistryNoResponseDetection(t *testing.T) {
	reg := BuildRegistry(stageFixtures())
	if got := reg.NoResponseKey(); got != "no_response" {
		t.Errorf("NoResponseKey = %q, want no_response", got)
	}

	// A renamed stage with a reserved key is still detected.
	renamed := BuildRegistry([]Stage{
		{StageKey: "no_response", Name: "Gone Quiet", Category: CategoryCold, IsActive: true, SortOrder: 1},
	})
	if got := renamed.NoResponseKey(); got != "no_response" {
		t.Errorf("NoResponseKey after rename = %q, want no_response", got)
	}

	// A key-less stage named "No Response" resolves through the name fallback.
	byName := BuildRegistry([]Stage{
		{Name: "No Response", Category: CategoryCold, IsActive: true, SortOrder: 1},
	})
	if got := byName.NoResponseKey(); got != "noresponse" {
		t.Errorf("NoResponseKey by name = %q, want noresponse", got)
	}
}

func TestRegistrySkipsUnidentifiableRecords(t *testing.T) {
	stages := append(stageFixtures(), Stage{Name: "   ", Score: 1, IsActive: true, SortOrder: 99})

	reg := BuildRegistry(stages)
	if len(reg.Skipped()) != 1 {
		t.Fatalf("expected 1 skipped record, got %d", len(reg.Skipped()))
	}
	if len(reg.ActiveStages()) != 6 {
		t.Errorf("skipped record leaked into active list")
	}
}

func TestRegistryEmptyFirstActive(t *testing.T) {
	reg := BuildRegistry(nil)
	if _, ok := reg.FirstActiveKey(); ok {
		t.Error("FirstActiveKey on empty registry should report not ok")
	}
}
