package transport

import (
	"time"

	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/repository"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	ParentsName      string            `json:"parentsName" validate:"required,min=2,max=120"`
	KidsName         string            `json:"kidsName" validate:"max=120"`
	Phone            string            `json:"phone" validate:"required,min=10,max=20"`
	SecondPhone      string            `json:"secondPhone" validate:"max=20"`
	Email            string            `json:"email" validate:"omitempty,email"`
	Location         string            `json:"location" validate:"max=200"`
	Grade            string            `json:"grade" validate:"max=60"`
	Counsellor       string            `json:"counsellor" validate:"max=120"`
	Offer            string            `json:"offer" validate:"max=200"`
	Notes            string            `json:"notes" validate:"max=2000"`
	Source           string            `json:"source" validate:"max=120"`
	Occupation       string            `json:"occupation" validate:"max=120"`
	CurrentSchool    string            `json:"currentSchool" validate:"max=200"`
	MeetDatetime     *time.Time        `json:"meetDatetime"`
	MeetLink         string            `json:"meetLink" validate:"max=500"`
	VisitDatetime    *time.Time        `json:"visitDatetime"`
	VisitLocation    string            `json:"visitLocation" validate:"max=200"`
	RegFees          string            `json:"regFees" validate:"max=60"`
	EnrollmentStatus string            `json:"enrollmentStatus" validate:"max=60"`
	StageResponses   map[string]string `json:"stageResponses"`
	CustomFields     map[string]string `json:"customFields"`
}

type UpdateLeadRequest struct {
	ParentsName      *string           `json:"parentsName" validate:"omitempty,min=2,max=120"`
	KidsName         *string           `json:"kidsName" validate:"omitempty,max=120"`
	Phone            *string           `json:"phone" validate:"omitempty,min=10,max=20"`
	SecondPhone      *string           `json:"secondPhone" validate:"omitempty,max=20"`
	Email            *string           `json:"email" validate:"omitempty,email"`
	Location         *string           `json:"location" validate:"omitempty,max=200"`
	Grade            *string           `json:"grade" validate:"omitempty,max=60"`
	Counsellor       *string           `json:"counsellor" validate:"omitempty,max=120"`
	Offer            *string           `json:"offer" validate:"omitempty,max=200"`
	Notes            *string           `json:"notes" validate:"omitempty,max=2000"`
	Source           *string           `json:"source" validate:"omitempty,max=120"`
	Occupation       *string           `json:"occupation" validate:"omitempty,max=120"`
	CurrentSchool    *string           `json:"currentSchool" validate:"omitempty,max=200"`
	MeetDatetime     *time.Time        `json:"meetDatetime"`
	MeetLink         *string           `json:"meetLink" validate:"omitempty,max=500"`
	VisitDatetime    *time.Time        `json:"visitDatetime"`
	VisitLocation    *string           `json:"visitLocation" validate:"omitempty,max=200"`
	RegFees          *string           `json:"regFees" validate:"omitempty,max=60"`
	EnrollmentStatus *string           `json:"enrollmentStatus" validate:"omitempty,max=60"`
	StageResponses   map[string]string `json:"stageResponses"`
	CustomFields     map[string]string `json:"customFields"`
	Stage            *string           `json:"stage" validate:"omitempty,max=120"`
	Surface          string            `json:"surface" validate:"max=60"`
}

// Fields converts the request to repository update params. Stage is carried
// separately; it goes through the stage mutation protocol.
func (r UpdateLeadRequest) Fields() repository.UpdateLeadParams {
	return repository.UpdateLeadParams{
		ParentsName:      r.ParentsName,
		KidsName:         r.KidsName,
		Phone:            r.Phone,
		SecondPhone:      r.SecondPhone,
		Email:            r.Email,
		Location:         r.Location,
		Grade:            r.Grade,
		Counsellor:       r.Counsellor,
		Offer:            r.Offer,
		Notes:            r.Notes,
		Source:           r.Source,
		Occupation:       r.Occupation,
		CurrentSchool:    r.CurrentSchool,
		MeetDatetime:     r.MeetDatetime,
		MeetLink:         r.MeetLink,
		VisitDatetime:    r.VisitDatetime,
		VisitLocation:    r.VisitLocation,
		RegFees:          r.RegFees,
		EnrollmentStatus: r.EnrollmentStatus,
		StageResponses:   r.StageResponses,
	}
}

type ChangeStageRequest struct {
	Stage   string `json:"stage" validate:"required,max=120"`
	Surface string `json:"surface" validate:"max=60"`
}

type ReactivateRequest struct {
	Surface string `json:"surface" validate:"max=60"`
}

type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,dive,required"`
}

type CreateFollowUpRequest struct {
	FollowUpDate time.Time `json:"followUpDate" validate:"required"`
	Details      string    `json:"details" validate:"max=1000"`
}

type LeadResponse struct {
	ID               uuid.UUID         `json:"id"`
	ParentsName      string            `json:"parentsName"`
	KidsName         string            `json:"kidsName"`
	Phone            string            `json:"phone"`
	SecondPhone      string            `json:"secondPhone"`
	Email            string            `json:"email"`
	Location         string            `json:"location"`
	Grade            string            `json:"grade"`
	Stage            string            `json:"stage"`
	StageDisplayName string            `json:"stageDisplayName"`
	StageColor       string            `json:"stageColor"`
	Score            int               `json:"score"`
	Category         string            `json:"category"`
	Counsellor       string            `json:"counsellor"`
	Offer            string            `json:"offer"`
	Notes            string            `json:"notes"`
	Source           string            `json:"source"`
	Occupation       string            `json:"occupation"`
	CurrentSchool    string            `json:"currentSchool"`
	MeetDate         string            `json:"meetDate"`
	MeetTime         string            `json:"meetTime"`
	MeetLink         string            `json:"meetLink"`
	VisitDate        string            `json:"visitDate"`
	VisitTime        string            `json:"visitTime"`
	VisitLocation    string            `json:"visitLocation"`
	RegFees          string            `json:"regFees"`
	EnrollmentStatus string            `json:"enrollmentStatus"`
	StageResponses   map[string]string `json:"stageResponses"`
	PreviousStage    *string           `json:"previousStage"`
	CustomFields     map[string]string `json:"customFields"`
	CreatedAt        time.Time         `json:"createdAt"`
	CreatedDisplay   string            `json:"createdDisplay"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:               l.ID,
		ParentsName:      l.ParentsName,
		KidsName:         l.KidsName,
		Phone:            l.Phone,
		SecondPhone:      l.SecondPhone,
		Email:            l.Email,
		Location:         l.Location,
		Grade:            l.Grade,
		Stage:            l.Stage,
		StageDisplayName: l.StageDisplayName,
		StageColor:       l.StageColor,
		Score:            l.Score,
		Category:         l.Category,
		Counsellor:       l.Counsellor,
		Offer:            l.Offer,
		Notes:            l.Notes,
		Source:           l.Source,
		Occupation:       l.Occupation,
		CurrentSchool:    l.CurrentSchool,
		MeetDate:         l.MeetDate,
		MeetTime:         l.MeetTime,
		MeetLink:         l.MeetLink,
		VisitDate:        l.VisitDate,
		VisitTime:        l.VisitTime,
		VisitLocation:    l.VisitLocation,
		RegFees:          l.RegFees,
		EnrollmentStatus: l.EnrollmentStatus,
		StageResponses:   l.StageResponses,
		PreviousStage:    l.PreviousStage,
		CustomFields:     l.CustomFields,
		CreatedAt:        l.CreatedAt,
		CreatedDisplay:   l.CreatedDisplay,
		UpdatedAt:        l.UpdatedAt,
	}
}

func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, len(leads))
	for i, l := range leads {
		out[i] = ToLeadResponse(l)
	}
	return out
}

type FollowUpResponse struct {
	ID           uuid.UUID `json:"id"`
	LeadID       uuid.UUID `json:"leadId"`
	FollowUpDate time.Time `json:"followUpDate"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ToFollowUpResponse(f domain.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID:           f.ID,
		LeadID:       f.LeadID,
		FollowUpDate: f.FollowUpDate,
		Details:      f.Details,
		CreatedAt:    f.CreatedAt,
	}
}

func ToFollowUpResponses(followUps []domain.FollowUp) []FollowUpResponse {
	out := make([]FollowUpResponse, len(followUps))
	for i, f := range followUps {
		out[i] = ToFollowUpResponse(f)
	}
	return out
}

type ActivityResponse struct {
	ID              uuid.UUID `json:"id"`
	LeadID          uuid.UUID `json:"leadId"`
	MainAction      string    `json:"mainAction"`
	Description     string    `json:"description"`
	ActionTimestamp time.Time `json:"actionTimestamp"`
}

func ToActivityResponses(entries []domain.ActivityEntry) []ActivityResponse {
	out := make([]ActivityResponse, len(entries))
	for i, e := range entries {
		out[i] = ActivityResponse{
			ID:              e.ID,
			LeadID:          e.LeadID,
			MainAction:      e.MainAction,
			Description:     e.Description,
			ActionTimestamp: e.ActionTimestamp,
		}
	}
	return out
}
