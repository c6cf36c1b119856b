package domain

import (
	"time"

	"github.com/google/uuid"
)

// RawLead mirrors a persisted leads row. The Stage column may hold either a
// canonical stage key or a legacy display name; readers must resolve it
// through the stage registry before acting on it.
type RawLead struct {
	ID               uuid.UUID
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
	PreviousStage    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Lead is the canonical form served to clients: the stage is always a
// resolved key, derived display fields are populated, and every optional
// field carries a zero value instead of a null.
type Lead struct {
	ID               uuid.UUID
	ParentsName      string
	KidsName         string
	Phone            string
	SecondPhone      string
	Email            string
	Location         string
	Grade            string
	Stage            string
	StageDisplayName string
	StageColor       string
	Score            int
	Category         string
	Counsellor       string
	Offer            string
	Notes            string
	Source           string
	Occupation       string
	CurrentSchool    string
	MeetDatetime     *time.Time
	MeetDate         string
	MeetTime         string
	MeetLink         string
	VisitDatetime    *time.Time
	VisitDate        string
	VisitTime        string
	VisitLocation    string
	RegFees          string
	EnrollmentStatus string
	StageResponses   map[string]string
	PreviousStage    *string
	CustomFields     map[string]string
	CreatedAt        time.Time
	CreatedDisplay   string
	UpdatedAt        time.Time
}

// ActivityEntry is one append-only audit row for a lead. Entries are never
// updated or deleted; staleness alerts derive from the newest entry.
type ActivityEntry struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	MainAction      string
	Description     string
	ActionTimestamp time.Time
}

// FollowUp is a scheduled reminder attached to a lead. Multiple follow-ups
// may exist per lead; the soonest by date is the "next" one.
type FollowUp struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	FollowUpDate time.Time
	Details      string
	CreatedAt    time.Time
}
