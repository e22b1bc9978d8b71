// Package patient exposes the patient registry over HTTP.
package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/medscanhq/medscan-api/internal/middleware"
	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/service/patient"
	"github.com/medscanhq/medscan-api/pkg/apperror"
	"github.com/medscanhq/medscan-api/pkg/httputil"
)

type Handler struct {
	svc *patient.Service
}

func NewHandler(svc *patient.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/patient", middleware.RequireRoles(model.RoleCenterAdmin), h.AddPatient)
	r.PUT("/patient/:mrn/edit", middleware.RequireRoles(model.RoleCenterAdmin), h.EditPatient)
	r.GET("/patient/:mrn/fetch", h.GetPatient)
}

func (h *Handler) AddPatient(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	var req model.AddPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, apperror.BadRequest(err.Error()))
		return
	}

	p, err := h.svc.AddPatient(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, p)
}

func (h *Handler) EditPatient(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	var req model.EditPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.Fail(c, apperror.BadRequest(err.Error()))
		return
	}

	p, err := h.svc.EditPatient(c.Request.Context(), caller, c.Param("mrn"), &req)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, p)
}

func (h *Handler) GetPatient(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	p, err := h.svc.GetPatient(c.Request.Context(), caller, c.Param("mrn"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, p)
}
