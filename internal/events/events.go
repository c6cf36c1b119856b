// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"admissions_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published after a lead row is persisted, whether from the
// creation form or a bulk import row. Subscribers must tolerate high volume
// during imports.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ParentName string    `json:"parentName"`
	ChildName  string    `json:"childName"`
	Phone      string    `json:"phone"`
	Grade      string    `json:"grade"`
	Source     string    `json:"source"`
	Imported   bool      `json:"imported"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStageChanged is published after a successful stage mutation.
// Both names are display names, resolved at mutation time.
type LeadStageChanged struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	FromStage    string    `json:"fromStage"`
	ToStage      string    `json:"toStage"`
	FromCategory string    `json:"fromCategory"`
	ToCategory   string    `json:"toCategory"`
	Surface      string    `json:"surface"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// FollowUpScheduled is published when a follow-up is recorded for a lead.
type FollowUpScheduled struct {
	BaseEvent
	FollowUpID uuid.UUID `json:"followUpId"`
	LeadID     uuid.UUID `json:"leadId"`
	DueAt      string    `json:"dueAt"`
}

func (e FollowUpScheduled) EventName() string { return "leads.followup.scheduled" }

// =============================================================================
// Settings Domain Events
// =============================================================================

// SettingsChanged is published after any settings table mutation so that the
// stage registry snapshot can be rebuilt from a full re-fetch.
type SettingsChanged struct {
	BaseEvent
	Entity string `json:"entity"` // stages | counsellors | sources | grades | form_fields
}

func (e SettingsChanged) EventName() string { return "settings.changed" }
