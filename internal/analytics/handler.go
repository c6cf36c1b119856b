package analytics

import (
	"net/http"
	"time"

	"admissions_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	group := protected.Group("/analytics")
	group.GET("/counsellors", h.Counsellors)
	group.GET("/funnel", h.Funnel)
}

func (h *Handler) Counsellors(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	perf, err := h.svc.CounsellorPerformance(c.Request.Context(), from, to)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, perf)
}

func (h *Handler) Funnel(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	funnel, err := h.svc.Funnel(c.Request.Context(), from, to)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, funnel)
}

// parseRange reads the optional from/to query params. Absent bounds default
// to all time up to now.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Time{}
	to := time.Now()

	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "from must be RFC 3339", nil)
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "to must be RFC 3339", nil)
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if !to.After(from) {
		httpkit.Error(c, http.StatusBadRequest, "to must be after from", nil)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}
