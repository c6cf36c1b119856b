package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"

	settingsdomain "admissions_backend/internal/settings/domain"
)

func testRegistry() *settingsdomain.Registry {
	return settingsdomain.BuildRegistry([]settingsdomain.Stage{
		{StageKey: "new_lead", Name: "New Lead", Color: "#3B82F6", Score: 20, Category: settingsdomain.CategoryNew, IsActive: true, SortOrder: 1},
		{StageKey: "connected", Name: "Connected", Color: "#F59E0B", Score: 40, Category: settingsdomain.CategoryWarm, IsActive: true, SortOrder: 2},
		{StageKey: "meeting_booked", Name: "Meeting Booked", Color: "#EF4444", Score: 60, Category: settingsdomain.CategoryHot, IsActive: true, SortOrder: 3},
		{Name: "Visit Booked", Color: "#8B5CF6", Score: 70, Category: settingsdomain.CategoryHot, IsActive: true, SortOrder: 4},
		{StageKey: "no_response", Name: "No Response", Color: "#6B7280", Score: 5, Category: settingsdomain.CategoryCold, IsActive: true, SortOrder: 5},
		{StageKey: "admission", Name: "Admission Done", Color: "#10B981", Score: 100, Category: settingsdomain.CategoryEnrolled, IsActive: true, SortOrder: 6},
	})
}

func TestNormalizeResolvesLegacyName(t *testing.T) {
	reg := testRegistry()
	created := time.Date(2025, 7, 23, 14, 30, 45, 0, time.UTC)

	lead := Normalize(RawLead{
		ID:          uuid.New(),
		ParentsName: " Asha Rao ",
		Stage:       "Meeting Booked",
		Phone:       "+91 98765 43210",
		CreatedAt:   created,
	}, reg, NormalizeOptions{DefaultSource: "Website"})

	if lead.Stage != "meeting_booked" {
		t.Fatalf("stage = %q, want meeting_booked", lead.Stage)
	}
	if lead.StageDisplayName != "Meeting Booked" {
		t.Errorf("display name = %q", lead.StageDisplayName)
	}
	if lead.Score != 60 || lead.Category != "Hot" {
		t.Errorf("derived fields = (%d, %s), want (60, Hot)", lead.Score, lead.Category)
	}
	if lead.ParentsName != "Asha Rao" {
		t.Errorf("parents name = %q, not trimmed", lead.ParentsName)
	}
	if lead.Phone != "9876543210" {
		t.Errorf("phone = %q, want bare national number", lead.Phone)
	}
	if lead.Source != "Website" {
		t.Errorf("source = %q, want default", lead.Source)
	}
	if lead.CreatedDisplay != "23 Jul 2025, 02:30:45 PM" {
		t.Errorf("created display = %q", lead.CreatedDisplay)
	}
	if !lead.CreatedAt.Equal(created) {
		t.Errorf("raw created timestamp not preserved")
	}
}

func TestNormalizeUnknownStageDefaults(t *testing.T) {
	reg := testRegistry()

	lead := Normalize(RawLead{Stage: "deleted_stage_xyz"}, reg, NormalizeOptions{})

	if lead.Stage != "deleted_stage_xyz" {
		t.Fatalf("stage = %q, want opaque passthrough", lead.Stage)
	}
	if lead.StageDisplayName != "deleted_stage_xyz" {
		t.Errorf("display name = %q, must never be empty", lead.StageDisplayName)
	}
	if lead.StageColor != settingsdomain.DefaultColor {
		t.Errorf("color = %q, want default", lead.StageColor)
	}
	if lead.Score != settingsdomain.DefaultScore {
		t.Errorf("score = %d, want default", lead.Score)
	}
	if lead.Category != string(settingsdomain.DefaultCategory) {
		t.Errorf("category = %q, want default", lead.Category)
	}
}

func TestNormalizeDatetimeSplitting(t *testing.T) {
	reg := testRegistry()
	meet := time.Date(2025, 8, 14, 9, 5, 0, 0, time.UTC)

	lead := Normalize(RawLead{Stage: "connected", MeetDatetime: &meet}, reg, NormalizeOptions{})

	if lead.MeetDate != "2025-08-14" || lead.MeetTime != "09:05" {
		t.Errorf("meet split = (%q, %q)", lead.MeetDate, lead.MeetTime)
	}
	if lead.VisitDate != "" || lead.VisitTime != "" {
		t.Errorf("absent visit datetime must split to empty strings, got (%q, %q)", lead.VisitDate, lead.VisitTime)
	}
	if lead.StageResponses == nil || lead.CustomFields == nil {
		t.Errorf("nil maps must normalize to empty maps")
	}
}

func TestNormalizeKeylessStageFallback(t *testing.T) {
	reg := testRegistry()

	lead := Normalize(RawLead{Stage: "Visit Booked"}, reg, NormalizeOptions{})

	if lead.Stage != "visitbooked" {
		t.Fatalf("stage = %q, want name-derived fallback key", lead.Stage)
	}
	if lead.StageDisplayName != "Visit Booked" {
		t.Errorf("display name = %q", lead.StageDisplayName)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	reg := testRegistry()
	meet := time.Date(2025, 8, 14, 9, 5, 0, 0, time.UTC)
	raw := RawLead{
		ID:           uuid.New(),
		ParentsName:  "Ravi",
		Phone:        "+919876543210",
		Stage:        "Connected",
		Source:       "Referral",
		MeetDatetime: &meet,
		CreatedAt:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	first := Normalize(raw, reg, NormalizeOptions{DefaultSource: "Website"})

	again := Normalize(RawLead{
		ID:             first.ID,
		ParentsName:    first.ParentsName,
		Phone:          first.Phone,
		Stage:          first.Stage,
		Source:         first.Source,
		MeetDatetime:   first.MeetDatetime,
		StageResponses: first.StageResponses,
		PreviousStage:  first.PreviousStage,
		CreatedAt:      first.CreatedAt,
		UpdatedAt:      first.UpdatedAt,
	}, reg, NormalizeOptions{DefaultSource: "Website", CustomFields: first.CustomFields})

	if again.Stage != first.Stage || again.Phone != first.Phone || again.Score != first.Score ||
		again.Category != first.Category || again.MeetDate != first.MeetDate ||
		again.MeetTime != first.MeetTime || again.CreatedDisplay != first.CreatedDisplay {
		t.Fatalf("normalization not stable:\nfirst = %+v\nagain = %+v", first, again)
	}
}
