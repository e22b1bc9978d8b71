// Package staff exposes workforce management over HTTP.
package staff

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medscanhq/medscan-api/internal/middleware"
	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/service/auth"
	"github.com/medscanhq/medscan-api/internal/service/staff"
	"github.com/medscanhq/medscan-api/pkg/apperror"
	"github.com/medscanhq/medscan-api/pkg/httputil"
)

type Handler struct {
	svc      *staff.Service
	resolver *auth.Resolver
}

func NewHandler(svc *staff.Service, resolver *auth.Resolver) *Handler {
	return &Handler{svc: svc, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := middleware.RequireRoles(model.RoleCenterAdmin)

	r.POST("/invite/medical-staff", admin, h.InviteMedicalStaff)
	r.POST("/invite/center-admin", admin, h.InviteCenterAdmin)
	r.PATCH("/manage/suspension/:staffId", admin, h.ToggleSuspension)
	r.GET("/fetch/staffs", admin, h.ListStaff)
}

func (h *Handler) InviteMedicalStaff(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	var req model.InviteMedicalStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, apperror.BadRequest(err.Error()))
		return
	}

	prac, err := h.svc.InviteMedicalStaff(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Created(c, prac)
}

func (h *Handler) InviteCenterAdmin(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	var req model.InviteCenterAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, apperror.BadRequest(err.Error()))
		return
	}

	admin, err := h.svc.InviteCenterAdmin(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Created(c, admin)
}

func (h *Handler) ToggleSuspension(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	staffID, err := uuid.Parse(c.Param("staffId"))
	if err != nil {
		httputil.Fail(c, apperror.BadRequest("invalid staff id"))
		return
	}

	role := model.Role(c.Query("role"))
	switch role {
	case model.RoleDoctor, model.RoleRadiologist, model.RoleCenterAdmin:
	default:
		httputil.Fail(c, apperror.BadRequest("role must be doctor, radiologist or centerAdmin"))
		return
	}

	if err := h.svc.ToggleSuspension(c.Request.Context(), caller, staffID, role); err != nil {
		httputil.Fail(c, err)
		return
	}

	// the status cache must not serve the pre-suspension value
	h.resolver.Invalidate(role, staffID)
	httputil.OK(c, gin.H{"updated": true})
}

func (h *Handler) ListStaff(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	filters := &model.StaffFilters{
		Role:   model.Role(c.Query("role")),
		Search: c.Query("search"),
		SortBy: c.Query("sortBy"),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", staff.DefaultStaffLimit),
	}

	members, err := h.svc.ListStaff(c.Request.Context(), caller, filters)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, members)
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
