// Package report exposes the paginated listings and dashboard endpoints.
package report

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medscanhq/medscan-api/internal/middleware"
	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/service/report"
	"github.com/medscanhq/medscan-api/pkg/httputil"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/patients", h.ListPatients)
	r.GET("/reports", h.ListStudies)
	r.GET("/analytics", middleware.RequireRoles(model.RoleCenterAdmin), h.Analytics)
	r.GET("/charts", middleware.RequireRoles(model.RoleCenterAdmin), h.Charts)
}

func (h *Handler) ListPatients(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	filters := &model.PatientFilters{
		Search: c.Query("search"),
		Status: model.PatientStatus(c.Query("status")),
		SortBy: c.Query("sortBy"),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", report.DefaultPatientLimit),
	}
	filters.StartDate = dateQuery(c, "startDate")
	filters.EndDate = dateQuery(c, "endDate")

	patients, meta, err := h.svc.ListPatients(c.Request.Context(), caller, filters)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Paginated(c, patients, meta)
}

func (h *Handler) ListStudies(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	filters := &model.StudyFilters{
		Search:   c.Query("search"),
		Status:   model.StudyStatus(c.Query("status")),
		Modality: c.Query("modality"),
		Priority: c.Query("priority"),
		SortBy:   c.Query("sortBy"),
		Page:     intQuery(c, "page", 1),
		Limit:    intQuery(c, "limit", report.DefaultStudyLimit),
	}
	filters.StartDate = dateQuery(c, "startDate")
	filters.EndDate = dateQuery(c, "endDate")

	studies, meta, err := h.svc.ListStudies(c.Request.Context(), caller, filters)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Paginated(c, studies, meta)
}

func (h *Handler) Analytics(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	analytics, err := h.svc.Analytics(c.Request.Context(), caller)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, analytics)
}

func (h *Handler) Charts(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	chart, err := h.svc.Chart(c.Request.Context(), caller, c.DefaultQuery("q", "weekdays"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, chart)
}

// intQuery applies def for an absent param. A present value is passed
// through even when malformed or non-positive (-1 for unparseable) so the
// service rejects it with the pagination validation error.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

// dateQuery accepts RFC 3339 or plain dates; anything else means unset.
func dateQuery(c *gin.Context, name string) time.Time {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}
