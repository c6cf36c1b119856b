package domain

import "testing"

const noResponse = "no_response"

func strPtr(s string) *string { return &s }

func TestNextPreviousStage(t *testing.T) {
	tests := []struct {
		name        string
		current     *string
		oldKey      string
		newKey      string
		wantValue   *string
		wantChanged bool
	}{
		{
			name:        "entering terminal stashes origin",
			current:     nil,
			oldKey:      "connected",
			newKey:      noResponse,
			wantValue:   strPtr("connected"),
			wantChanged: true,
		},
		{
			name:        "leaving terminal clears stash",
			current:     strPtr("connected"),
			oldKey:      noResponse,
			newKey:      "meeting_booked",
			wantValue:   nil,
			wantChanged: true,
		},
		{
			name:        "ordinary transition leaves pointer untouched",
			current:     nil,
			oldKey:      "new_lead",
			newKey:      "connected",
			wantValue:   nil,
			wantChanged: false,
		},
		{
			name:        "terminal to terminal is untouched",
			current:     strPtr("connected"),
			oldKey:      noResponse,
			newKey:      noResponse,
			wantValue:   strPtr("connected"),
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := NextPreviousStage(tt.current, tt.oldKey, tt.newKey, noResponse)
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			switch {
			case tt.wantValue == nil && got != nil:
				t.Errorf("value = %q, want nil", *got)
			case tt.wantValue != nil && got == nil:
				t.Errorf("value = nil, want %q", *tt.wantValue)
			case tt.wantValue != nil && got != nil && *got != *tt.wantValue:
				t.Errorf("value = %q, want %q", *got, *tt.wantValue)
			}
		})
	}
}

func TestReactivationTarget(t *testing.T) {
	if _, err := ReactivationTarget("connected", strPtr("new_lead"), noResponse); err == nil {
		t.Error("expected error for lead outside the terminal stage")
	}
	if _, err := ReactivationTarget(noResponse, nil, noResponse); err == nil {
		t.Error("expected error for nil previous stage")
	}
	if _, err := ReactivationTarget(noResponse, strPtr(""), noResponse); err == nil {
		t.Error("expected error for empty previous stage")
	}

	target, err := ReactivationTarget(noResponse, strPtr("visit_booked"), noResponse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target != "visit_booked" {
		t.Errorf("target = %q, want visit_booked", target)
	}
}
