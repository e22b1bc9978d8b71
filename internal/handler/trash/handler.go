// Package trash exposes the center's bin over HTTP.
package trash

import (
	"github.com/gin-gonic/gin"

	"github.com/medscanhq/medscan-api/internal/middleware"
	"github.com/medscanhq/medscan-api/internal/model"
	"github.com/medscanhq/medscan-api/internal/service/trash"
	"github.com/medscanhq/medscan-api/pkg/httputil"
)

type Handler struct {
	svc *trash.Service
}

func NewHandler(svc *trash.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/bin", middleware.RequireRoles(model.RoleCenterAdmin), h.ListTrash)
}

func (h *Handler) ListTrash(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	items, err := h.svc.ListTrash(c.Request.Context(), caller)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.OK(c, items)
}
