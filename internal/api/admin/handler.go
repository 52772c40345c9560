package admin

import (
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dashboard serves GET /admin/dashboard.
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, stats)
}

// ListUsers serves GET /admin/users.
func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, list)
}

// ListPayments serves GET /admin/payments.
func (h *Handler) ListPayments(c *gin.Context) {
	list, err := h.service.ListPayments(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, list)
}

// GetUserDetails serves GET /admin/users/:id.
func (h *Handler) GetUserDetails(c *gin.Context) {
	details, err := h.service.UserDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, details)
}
