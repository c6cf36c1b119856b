package domain

import (
	"strings"
	"time"

	settingsdomain "admissions_backend/internal/settings/domain"
	"admissions_backend/platform/phone"
)

// CreatedDisplayLayout is the fixed format for the human-facing creation
// timestamp. Clients must not re-parse it; the raw timestamp travels with it.
const CreatedDisplayLayout = "02 Jan 2006, 03:04:05 PM"

const (
	isoDateLayout = "2006-01-02"
	clockLayout   = "15:04"
)

// NormalizeOptions carries per-call collaborator data for Normalize.
// DefaultSource substitutes for an absent source; CustomFields is the
// key-value map fetched for this lead, nil when the fetch failed or the lead
// has none.
type NormalizeOptions struct {
	DefaultSource string
	CustomFields  map[string]string
}

// Normalize converts one persisted lead row into the canonical lead. It never
// fails: unresolvable stages degrade to opaque labels with default derived
// fields, absent optionals become empty strings, and nil maps become empty
// maps. Feeding a normalized lead back through Normalize yields the same
// result.
func Normalize(raw RawLead, reg *settingsdomain.Registry, opts NormalizeOptions) Lead {
	key := reg.Resolve(strings.TrimSpace(raw.Stage))

	source := strings.TrimSpace(raw.Source)
	if source == "" {
		source = opts.DefaultSource
	}

	meetDate, meetTime := splitDatetime(raw.MeetDatetime)
	visitDate, visitTime := splitDatetime(raw.VisitDatetime)

	return Lead{
		ID:               raw.ID,
		ParentsName:      strings.TrimSpace(raw.ParentsName),
		KidsName:         strings.TrimSpace(raw.KidsName),
		Phone:            phone.NormalizeLocal(raw.Phone),
		SecondPhone:      phone.NormalizeLocal(raw.SecondPhone),
		Email:            strings.TrimSpace(raw.Email),
		Location:         strings.TrimSpace(raw.Location),
		Grade:            strings.TrimSpace(raw.Grade),
		Stage:            key,
		StageDisplayName: reg.NameFromKey(key),
		StageColor:       reg.ColorOf(key),
		Score:            reg.ScoreOf(key),
		Category:         string(reg.CategoryOf(key)),
		Counsellor:       strings.TrimSpace(raw.Counsellor),
		Offer:            strings.TrimSpace(raw.Offer),
		Notes:            strings.TrimSpace(raw.Notes),
		Source:           source,
		Occupation:       strings.TrimSpace(raw.Occupation),
		CurrentSchool:    strings.TrimSpace(raw.CurrentSchool),
		MeetDatetime:     raw.MeetDatetime,
		MeetDate:         meetDate,
		MeetTime:         meetTime,
		MeetLink:         strings.TrimSpace(raw.MeetLink),
		VisitDatetime:    raw.VisitDatetime,
		VisitDate:        visitDate,
		VisitTime:        visitTime,
		VisitLocation:    strings.TrimSpace(raw.VisitLocation),
		RegFees:          strings.TrimSpace(raw.RegFees),
		EnrollmentStatus: strings.TrimSpace(raw.EnrollmentStatus),
		StageResponses:   copyOrEmpty(raw.StageResponses),
		PreviousStage:    raw.PreviousStage,
		CustomFields:     copyOrEmpty(opts.CustomFields),
		CreatedAt:        raw.CreatedAt,
		CreatedDisplay:   raw.CreatedAt.Format(CreatedDisplayLayout),
		UpdatedAt:        raw.UpdatedAt,
	}
}

// splitDatetime breaks a combined timestamp into an ISO date and an HH:MM
// clock for form editing. A nil or zero source yields empty strings for both
// parts.
func splitDatetime(t *time.Time) (string, string) {
	if t == nil || t.IsZero() {
		return "", ""
	}
	return t.Format(isoDateLayout), t.Format(clockLayout)
}

func copyOrEmpty(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
