package stripewebhooks

import (
	"io"
	"net/http"

	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/logger"
	"arcana-app/internal/pkg/metrics"
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75/webhook"
	"go.uber.org/zap"
)

const maxBodyBytes = 65536

type Handler struct {
	processor *Processor
	secret    string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewHandler(processor *Processor, secret string, l *zap.Logger, m *metrics.Metrics) *Handler {
	return &Handler{processor: processor, secret: secret, logger: logger.OrNop(l), metrics: m}
}

// StripeWebhook serves POST /api/webhooks/stripe. The signature is verified
// before anything is decoded.
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.secret == "" {
		h.logger.Error("STRIPE_WEBHOOK_SECRET not configured")
		response.Message(c, http.StatusInternalServerError, "Webhook not configured")
		return
	}

	payload, err := readStripeBody(c, maxBodyBytes)
	if err != nil {
		response.Message(c, http.StatusServiceUnavailable, "Error reading request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.logger.Warn("stripe signature verification failed", zap.Error(err))
		h.metrics.RecordWebhook("unknown", "invalid_signature")
		response.Message(c, http.StatusBadRequest, "Signature verification failed")
		return
	}

	outcome, err := h.processor.Apply(c.Request.Context(), &event)
	if err != nil {
		h.metrics.RecordWebhook(string(event.Type), "error")
		if apperr.KindOf(err) == apperr.KindInternal {
			h.logger.Error("stripe event failed",
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
		} else {
			h.logger.Warn("stripe event rejected",
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
		}
		response.Fail(c, err)
		return
	}

	h.metrics.RecordWebhook(string(event.Type), string(outcome))
	response.OK(c, gin.H{"status": outcome})
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
