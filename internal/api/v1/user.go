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

type UserHandler struct {
	userService service.UserService
	logger      *logger.Logger
}

func NewUserHandler(userService service.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

func (h *UserHandler) Me(c *gin.Context) {
	resp, err := h.userService.Me(c.Request.Context(), types.GetUsername(c.Request.Context()))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) ChangeEmail(c *gin.Context) {
	var req dto.ChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.userService.ChangeEmail(c.Request.Context(), types.GetUsername(c.Request.Context()), &req)
	if err != nil {
		h.logger.Errorw("failed to change email", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) ChangeUsername(c *gin.Context) {
	var req dto.ChangeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.userService.ChangeUsername(c.Request.Context(), types.GetUsername(c.Request.Context()), &req)
	if err != nil {
		h.logger.Errorw("failed to change username", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Please check the request payload").
			Mark(ierr.ErrValidation))
		return
	}

	err := h.userService.ChangePassword(c.Request.Context(), types.GetUsername(c.Request.Context()), &req)
	if err != nil {
		h.logger.Errorw("failed to change password", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
