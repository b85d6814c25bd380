package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitsub/splitsub/internal/api/dto"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/service"
	"github.com/splitsub/splitsub/internal/types"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	logger              *logger.Logger
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

func (h *SubscriptionHandler) Join(c *gin.Context) {
	var req dto.JoinPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.subscriptionService.Join(c.Request.Context(), types.GetUsername(c.Request.Context()), &req)
	if err != nil {
		h.logger.Errorw("failed to join plan", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	// The body is optional; a leaving owner names a successor in it
	var req dto.CancelMembershipRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Please check the request payload").
				Mark(ierr.ErrValidation))
			return
		}
	}

	err := h.subscriptionService.Cancel(c.Request.Context(), types.GetUsername(c.Request.Context()), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to cancel membership", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *SubscriptionHandler) EditQuantity(c *gin.Context) {
	var req dto.EditQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	err := h.subscriptionService.EditQuantity(c.Request.Context(), types.GetUsername(c.Request.Context()), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to edit quantity", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
