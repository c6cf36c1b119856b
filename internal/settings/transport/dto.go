package transport

import (
	"time"

	"admissions_backend/internal/settings/domain"

	"github.com/google/uuid"
)

// Request DTOs

type CreateStageRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Color    string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Score    int    `json:"score" validate:"min=0,max=100"`
	Category string `json:"category" validate:"required,oneof=New Warm Hot Cold Enrolled"`
}

type UpdateStageRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Color    *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Score    *int    `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Category *string `json:"category,omitempty" validate:"omitempty,oneof=New Warm Hot Cold Enrolled"`
}

type ReorderStageRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type CounsellorRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

type NamedRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type FormFieldRequest struct {
	Label     string   `json:"label" validate:"required,min=1,max=100"`
	FieldType string   `json:"fieldType,omitempty" validate:"omitempty,oneof=text number date select"`
	Options   []string `json:"options,omitempty" validate:"omitempty,max=50,dive,max=100"`
}

// Response DTOs

type StageResponse struct {
	ID        uuid.UUID `json:"id"`
	StageKey  string    `json:"stageKey"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Score     int       `json:"score"`
	Category  string    `json:"category"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToStageResponse(s domain.Stage) StageResponse {
	return StageResponse{
		ID:        s.ID,
		StageKey:  domain.ResolvedKey(s),
		Name:      s.Name,
		Color:     s.Color,
		Score:     s.Score,
		Category:  string(s.Category),
		IsActive:  s.IsActive,
		SortOrder: s.SortOrder,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func ToStageResponses(stages []domain.Stage) []StageResponse {
	out := make([]StageResponse, len(stages))
	for i, s := range stages {
		out[i] = ToStageResponse(s)
	}
	return out
}

type CounsellorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
}

func ToCounsellorResponse(c domain.Counsellor) CounsellorResponse {
	return CounsellorResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		IsActive:  c.IsActive,
		SortOrder: c.SortOrder,
	}
}

type NamedResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
}

type FormFieldResponse struct {
	ID        uuid.UUID `json:"id"`
	FieldKey  string    `json:"fieldKey"`
	Label     string    `json:"label"`
	FieldType string    `json:"fieldType"`
	Options   []string  `json:"options,omitempty"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
}

func ToFormFieldResponse(f domain.FormField) FormFieldResponse {
	return FormFieldResponse{
		ID:        f.ID,
		FieldKey:  f.FieldKey,
		Label:     f.Label,
		FieldType: f.FieldType,
		Options:   f.Options,
		IsActive:  f.IsActive,
		SortOrder: f.SortOrder,
	}
}
