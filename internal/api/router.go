package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/splitsub/splitsub/internal/api/v1"
	"github.com/splitsub/splitsub/internal/auth"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/rest/middleware"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Auth         *v1.AuthHandler
	User         *v1.UserHandler
	Plan         *v1.PlanHandler
	Subscription *v1.SubscriptionHandler
	Webhook      *v1.WebhookHandler
}

func NewRouter(handlers Handlers, tokens *auth.TokenProvider, logger *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// The processor posts raw signed payloads here; no session auth
	router.POST("/webhooks/stripe", handlers.Webhook.HandleStripeWebhook)

	v1Group := router.Group("/v1")

	public := v1Group.Group("")
	{
		public.POST("/auth/signup", handlers.Auth.SignUp)
		public.POST("/auth/login", handlers.Auth.Login)
		public.POST("/auth/reset-password", handlers.Auth.ResetPassword)
		public.POST("/auth/reset-password/confirm", handlers.Auth.ResetPasswordFromToken)

		// Join pages resolve invite codes before the visitor signs in
		public.GET("/join/:code", handlers.Plan.GetPlanByJoinCode)
	}

	private := v1Group.Group("", middleware.AuthenticateMiddleware(tokens, logger))
	{
		private.GET("/users/me", handlers.User.Me)
		private.PUT("/users/me/email", handlers.User.ChangeEmail)
		private.PUT("/users/me/username", handlers.User.ChangeUsername)
		private.PUT("/users/me/password", handlers.User.ChangePassword)

		private.POST("/plans", handlers.Plan.CreatePlan)
		private.GET("/plans", handlers.Plan.ListPlans)
		private.GET("/plans/:id", handlers.Plan.GetPlan)

		private.POST("/subscriptions", handlers.Subscription.Join)
		private.DELETE("/plans/:id/membership", handlers.Subscription.Cancel)
		private.PUT("/plans/:id/membership/quantity", handlers.Subscription.EditQuantity)

		private.POST("/portal-session", handlers.Plan.CreatePortalSession)
	}

	return router
}
