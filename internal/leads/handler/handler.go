package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"admissions_backend/internal/leads/activity"
	"admissions_backend/internal/leads/domain"
	"admissions_backend/internal/leads/followups"
	"admissions_backend/internal/leads/importer"
	"admissions_backend/internal/leads/management"
	"admissions_backend/internal/leads/transport"
	"admissions_backend/platform/httpkit"
	"admissions_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	// maxImportSize caps upload reads at 10 MiB.
	maxImportSize = 10 << 20
)

type Handler struct {
	mgmt      *management.Service
	importSvc *importer.Service
	followUps *followups.Service
	activity  *activity.Service
	val       *validator.Validator
}

func New(mgmt *management.Service, importSvc *importer.Service, followUps *followups.Service, act *activity.Service, val *validator.Validator) *Handler {
	return &Handler{mgmt: mgmt, importSvc: importSvc, followUps: followUps, activity: act, val: val}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	leads := protected.Group("/leads")
	{
		leads.GET("", h.List)
		leads.POST("", h.Create)
		leads.DELETE("", h.BulkDelete)
		leads.POST("/import", h.Import)

		leads.GET("/:id", h.Get)
		leads.PUT("/:id", h.Update)
		leads.PATCH("/:id/stage", h.ChangeStage)
		leads.POST("/:id/reactivate", h.Reactivate)

		leads.GET("/:id/activity", h.Activity)
		leads.GET("/:id/follow-ups", h.ListFollowUps)
		leads.POST("/:id/follow-ups", h.CreateFollowUp)
		leads.GET("/:id/follow-ups/next", h.NextFollowUp)
	}

	protected.GET("/follow-ups", h.FollowUpsInRange)
	protected.DELETE("/follow-ups/:id", h.DeleteFollowUp)
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	alert := c.Query("alert") == "true"

	leads, err := h.mgmt.List(c.Request.Context(), management.ListParams{
		Category: c.Query("category"),
		Filter: domain.Filter{
			Counsellors: c.QueryArray("counsellor"),
			Stages:      c.QueryArray("stage"),
			Categories:  c.QueryArray("status"),
			Search:      c.Query("search"),
			Alert:       alert,
		},
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponses(leads))
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.mgmt.Create(c.Request.Context(), management.CreateParams{
		ParentsName:      req.ParentsName,
		KidsName:         req.KidsName,
		Phone:            req.Phone,
		SecondPhone:      req.SecondPhone,
		Email:            req.Email,
		Location:         req.Location,
		Grade:            req.Grade,
		Counsellor:       req.Counsellor,
		Offer:            req.Offer,
		Notes:            req.Notes,
		Source:           req.Source,
		Occupation:       req.Occupation,
		CurrentSchool:    req.CurrentSchool,
		MeetDatetime:     req.MeetDatetime,
		MeetLink:         req.MeetLink,
		VisitDatetime:    req.VisitDatetime,
		VisitLocation:    req.VisitLocation,
		RegFees:          req.RegFees,
		EnrollmentStatus: req.EnrollmentStatus,
		StageResponses:   req.StageResponses,
		CustomFields:     req.CustomFields,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	lead, err := h.mgmt.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.mgmt.Update(c.Request.Context(), id, management.UpdateParams{
		Fields:       req.Fields(),
		CustomFields: req.CustomFields,
		Stage:        req.Stage,
		Surface:      surfaceOr(req.Surface, "sidebar edit all"),
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) ChangeStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.mgmt.ChangeStage(c.Request.Context(), id, req.Stage, surfaceOr(req.Surface, "table dropdown"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Reactivate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ReactivateRequest
	// The body is optional; ignore bind errors for an empty payload.
	_ = c.ShouldBindJSON(&req)

	lead, err := h.mgmt.Reactivate(c.Request.Context(), id, surfaceOr(req.Surface, "sidebar"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) BulkDelete(c *gin.Context) {
	var req transport.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	deleted, err := h.mgmt.Delete(c.Request.Context(), req.IDs)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"deleted": deleted})
}

func (h *Handler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fileHeader.Size > maxImportSize {
		httpkit.Error(c, http.StatusBadRequest, "file exceeds the 10 MB limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not open upload", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read upload", nil)
		return
	}

	summary, err := h.importSvc.Import(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, summary)
}

func (h *Handler) Activity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entries, err := h.activity.History(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToActivityResponses(entries))
}

func (h *Handler) ListFollowUps(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	followUps, err := h.followUps.ListForLead(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponses(followUps))
}

func (h *Handler) CreateFollowUp(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	followUp, err := h.followUps.Create(c.Request.Context(), id, req.FollowUpDate, req.Details)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToFollowUpResponse(followUp))
}

func (h *Handler) NextFollowUp(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	next, err := h.followUps.Next(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponse(next))
}

func (h *Handler) FollowUpsInRange(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "from must be RFC 3339", nil)
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "to must be RFC 3339", nil)
		return
	}

	followUps, err := h.followUps.ListInRange(c.Request.Context(), from, to)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToFollowUpResponses(followUps))
}

func (h *Handler) DeleteFollowUp(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.followUps.Delete(c.Request.Context(), id); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func surfaceOr(surface, fallback string) string {
	if surface == "" {
		return fallback
	}
	return surface
}
