package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/service"
)

type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *logger.Logger
}

func NewWebhookHandler(webhookService service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// HandleStripeWebhook receives raw processor events. Unverifiable
// payloads get a 400 so the processor retries with a fresh signature;
// everything after verification is acknowledged with a 200 even when the
// dispatch failed internally.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.webhookService.HandleEvent(c.Request.Context(), payload, signature); err != nil {
		h.logger.Warnw("rejected webhook event", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
