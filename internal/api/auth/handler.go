package auth

import (
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	google  *Google
}

func NewHandler(service *Service, google *Google) *Handler {
	return &Handler{service: service, google: google}
}

// Register serves POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, apperr.Validation("Invalid request body"))
		return
	}

	session, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Created(c, session)
}

// Login serves POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, apperr.Validation("Invalid request body"))
		return
	}

	session, err := h.service.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, session)
}
