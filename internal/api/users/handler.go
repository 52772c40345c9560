package users

import (
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func currentUser(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		response.Fail(c, apperr.Unauthorized("Unauthorized"))
		return "", false
	}
	return userID, true
}

// GetCurrentUser serves GET /api/user/me.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	me, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, me)
}

// GetProfile serves GET /api/user.
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.service.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, view)
}

// UpdateProfile serves PUT /api/user.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var body ProfileInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, apperr.Validation("Invalid request body"))
		return
	}

	view, err := h.service.UpdateProfile(c.Request.Context(), userID, c.ClientIP(), body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, view)
}

// GetAstrology serves GET /api/user/astrology.
func (h *Handler) GetAstrology(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	view, err := h.service.GetUserAstrology(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, view)
}

// UpdateAstrology serves POST /api/user/astrology.
func (h *Handler) UpdateAstrology(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var body AstrologyInput
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, apperr.Validation("Invalid request body"))
		return
	}

	view, err := h.service.UpdateUserAstrology(c.Request.Context(), userID, c.ClientIP(), body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, view)
}
