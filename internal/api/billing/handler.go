package billing

import (
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// sessionUser returns the authenticated user id, failing the request when the
// session has none or when requested names a different user.
func sessionUser(c *gin.Context, requested string) (string, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		response.Fail(c, apperr.Unauthorized("Unauthorized"))
		return "", false
	}
	if requested != "" && requested != userID {
		response.Fail(c, apperr.Forbidden("Cannot access another user's subscription"))
		return "", false
	}
	return userID, true
}

// GetSubscription serves GET /api/subscription?userId=.
func (h *Handler) GetSubscription(c *gin.Context) {
	userID, ok := sessionUser(c, c.Query("userId"))
	if !ok {
		return
	}

	sub, err := h.manager.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, sub)
}

// UpdateSubscription serves POST /api/subscription.
func (h *Handler) UpdateSubscription(c *gin.Context) {
	var body UpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, apperr.Validation("Missing or invalid parameters"))
		return
	}
	if _, ok := sessionUser(c, body.UserID); !ok {
		return
	}

	sub, err := h.manager.UpdateSubscription(c.Request.Context(), body)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, sub)
}

// Checkout serves POST /api/subscription/checkout.
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := sessionUser(c, "")
	if !ok {
		return
	}

	var body struct {
		PlanID string `json:"planId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, apperr.Validation("planId is required"))
		return
	}

	url, err := h.manager.Checkout(c.Request.Context(), CheckoutRequest{
		UserID: userID,
		PlanID: body.PlanID,
		IP:     c.ClientIP(),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

// Portal serves POST /api/subscription/portal.
func (h *Handler) Portal(c *gin.Context) {
	userID, ok := sessionUser(c, "")
	if !ok {
		return
	}

	url, err := h.manager.Portal(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

// ListPayments serves GET /api/payments.
func (h *Handler) ListPayments(c *gin.Context) {
	userID, ok := sessionUser(c, "")
	if !ok {
		return
	}

	payments, err := h.manager.ListPayments(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, payments)
}
