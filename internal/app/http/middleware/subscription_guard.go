package middleware

import (
	"net/http"

	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequireActiveSubscription admits only callers whose latest subscription is
// active. Must run after AuthMiddleware.
func RequireActiveSubscription(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			response.Message(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		sub, err := subscriptions.Latest(db.WithContext(c.Request.Context()), userID)
		if err != nil {
			response.Message(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if sub == nil {
			response.Message(c, http.StatusForbidden, "Subscription not found")
			return
		}
		if !sub.Entitled() {
			response.Message(c, http.StatusPaymentRequired, "Subscription is not active")
			return
		}

		c.Set("subscription", sub)
		c.Next()
	}
}
