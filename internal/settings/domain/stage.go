// Package domain holds the settings bounded context's pure domain logic:
// the stage record model and the stage registry derived from it.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is the coarse lead-heat classification derived from a stage.
type Category string

const (
	CategoryNew      Category = "New"
	CategoryWarm     Category = "Warm"
	CategoryHot      Category = "Hot"
	CategoryCold     Category = "Cold"
	CategoryEnrolled Category = "Enrolled"
)

// KnownCategory reports whether value is one of the five categories.
func KnownCategory(value string) bool {
	switch Category(value) {
	case CategoryNew, CategoryWarm, CategoryHot, CategoryCold, CategoryEnrolled:
		return true
	}
	return false
}

// Stage is one admin-managed pipeline stage record.
// StageKey is the stable machine identifier; legacy rows may lack one, in
// which case the registry derives a deterministic fallback from Name.
type Stage struct {
	ID        uuid.UUID
	StageKey  string
	Name      string
	Color     string
	Score     int
	Category  Category
	IsActive  bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Counsellor is an admissions counsellor selectable on leads.
type Counsellor struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	IsActive  bool
	SortOrder int
}

// Source is a configured lead source (Website, Walk-in, ...).
type Source struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	SortOrder int
}

// Grade is a school grade/class offered for admission.
type Grade struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	SortOrder int
}

// FormField is an admin-defined custom field rendered on the lead form.
// Values live per lead in lead_field_values.
type FormField struct {
	ID        uuid.UUID
	FieldKey  string
	Label     string
	FieldType string // text | number | date | select
	Options   []string
	IsActive  bool
	SortOrder int
}
