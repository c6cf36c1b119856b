package handler

import (
	"context"
	"net/http"

	"admissions_backend/internal/settings/service"
	"admissions_backend/internal/settings/transport"
	"admissions_backend/platform/httpkit"
	"admissions_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts settings routes. Reads are available to every
// authenticated user; mutations are mounted on the admin group by the module.
func (h *Handler) RegisterRoutes(read, admin *gin.RouterGroup) {
	read.GET("/stages", h.ListStages)
	read.GET("/counsellors", h.ListCounsellors)
	read.GET("/sources", h.ListSources)
	read.GET("/grades", h.ListGrades)
	read.GET("/form-fields", h.ListFormFields)

	admin.POST("/stages", h.CreateStage)
	admin.PUT("/stages/:id", h.UpdateStage)
	admin.PATCH("/stages/:id/toggle", h.ToggleStage)
	admin.POST("/stages/:id/reorder", h.ReorderStage)

	admin.POST("/counsellors", h.CreateCounsellor)
	admin.PUT("/counsellors/:id", h.UpdateCounsellor)
	admin.PATCH("/counsellors/:id/toggle", h.ToggleCounsellor)

	admin.POST("/sources", h.CreateSource)
	admin.PATCH("/sources/:id/toggle", h.ToggleSource)
	admin.POST("/grades", h.CreateGrade)
	admin.PATCH("/grades/:id/toggle", h.ToggleGrade)

	admin.POST("/form-fields", h.CreateFormField)
	admin.DELETE("/form-fields/:id", h.DeleteFormField)
}

func (h *Handler) ListStages(c *gin.Context) {
	stages, err := h.svc.ListStages(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, stages)
}

func (h *Handler) CreateStage(c *gin.Context) {
	var req transport.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.CreateStage(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, stage)
}

func (h *Handler) UpdateStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	stage, err := h.svc.UpdateStage(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, stage)
}

func (h *Handler) ToggleStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	active, err := h.svc.ToggleStage(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"isActive": active})
}

func (h *Handler) ReorderStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.ReorderStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.ReorderStage(c.Request.Context(), id, req.Direction); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

func (h *Handler) ListCounsellors(c *gin.Context) {
	activeOnly := c.Query("all") == ""
	counsellors, err := h.svc.ListCounsellors(c.Request.Context(), activeOnly)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	out := make([]transport.CounsellorResponse, len(counsellors))
	for i, item := range counsellors {
		out[i] = transport.ToCounsellorResponse(item)
	}
	httpkit.OK(c, out)
}

func (h *Handler) CreateCounsellor(c *gin.Context) {
	var req transport.CounsellorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	counsellor, err := h.svc.CreateCounsellor(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToCounsellorResponse(counsellor))
}

func (h *Handler) UpdateCounsellor(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.CounsellorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	counsellor, err := h.svc.UpdateCounsellor(c.Request.Context(), id, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.ToCounsellorResponse(counsellor))
}

func (h *Handler) ToggleCounsellor(c *gin.Context) {
	h.toggle(c, h.svc.ToggleCounsellor)
}

func (h *Handler) ListSources(c *gin.Context) {
	h.listNamed(c, func(activeOnly bool) ([]transport.NamedResponse, error) {
		sources, err := h.svc.ListSources(c.Request.Context(), activeOnly)
		if err != nil {
			return nil, err
		}
		out := make([]transport.NamedResponse, len(sources))
		for i, item := range sources {
			out[i] = transport.NamedResponse(item)
		}
		return out, nil
	})
}

func (h *Handler) ListGrades(c *gin.Context) {
	h.listNamed(c, func(activeOnly bool) ([]transport.NamedResponse, error) {
		grades, err := h.svc.ListGrades(c.Request.Context(), activeOnly)
		if err != nil {
			return nil, err
		}
		out := make([]transport.NamedResponse, len(grades))
		for i, item := range grades {
			out[i] = transport.NamedResponse(item)
		}
		return out, nil
	})
}

func (h *Handler) CreateSource(c *gin.Context) {
	h.createNamed(c, h.svc.CreateSource)
}

func (h *Handler) CreateGrade(c *gin.Context) {
	h.createNamed(c, h.svc.CreateGrade)
}

func (h *Handler) ToggleSource(c *gin.Context) {
	h.toggle(c, h.svc.ToggleSource)
}

func (h *Handler) ToggleGrade(c *gin.Context) {
	h.toggle(c, h.svc.ToggleGrade)
}

func (h *Handler) ListFormFields(c *gin.Context) {
	activeOnly := c.Query("all") == ""
	fields, err := h.svc.ListFormFields(c.Request.Context(), activeOnly)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	out := make([]transport.FormFieldResponse, len(fields))
	for i, item := range fields {
		out[i] = transport.ToFormFieldResponse(item)
	}
	httpkit.OK(c, out)
}

func (h *Handler) CreateFormField(c *gin.Context) {
	var req transport.FormFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	field, err := h.svc.CreateFormField(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToFormFieldResponse(field))
}

func (h *Handler) DeleteFormField(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteFormField(c.Request.Context(), id); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}

// Helpers

func (h *Handler) createNamed(c *gin.Context, create func(ctx context.Context, name string) (uuid.UUID, error)) {
	var req transport.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	id, err := create(c.Request.Context(), req.Name)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) toggle(c *gin.Context, toggle func(ctx context.Context, id uuid.UUID) (bool, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	active, err := toggle(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"isActive": active})
}

func (h *Handler) listNamed(c *gin.Context, list func(activeOnly bool) ([]transport.NamedResponse, error)) {
	activeOnly := c.Query("all") == ""
	items, err := list(activeOnly)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, items)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}
