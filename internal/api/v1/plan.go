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

type PlanHandler struct {
	planService service.PlanService
	logger      *logger.Logger
}

func NewPlanHandler(planService service.PlanService, logger *logger.Logger) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      logger,
	}
}

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.planService.CreatePlan(c.Request.Context(), types.GetUsername(c.Request.Context()), &req)
	if err != nil {
		h.logger.Errorw("failed to create plan", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	resp, err := h.planService.GetPlan(c.Request.Context(), c.Param("id"), types.GetUsername(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPlanByJoinCode backs the join page: it resolves an invite code to
// the plan it belongs to
func (h *PlanHandler) GetPlanByJoinCode(c *gin.Context) {
	resp, err := h.planService.GetPlanByJoinCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	resp, err := h.planService.ListPlans(c.Request.Context(), types.GetUsername(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanHandler) CreatePortalSession(c *gin.Context) {
	resp, err := h.planService.CreatePortalSession(c.Request.Context(), types.GetUsername(c.Request.Context()))
	if err != nil {
		h.logger.Errorw("failed to create portal session", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
