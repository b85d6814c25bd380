package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/splitsub/splitsub/internal/api"
	v1 "github.com/splitsub/splitsub/internal/api/v1"
	"github.com/splitsub/splitsub/internal/auth"
	"github.com/splitsub/splitsub/internal/config"
	"github.com/splitsub/splitsub/internal/email"
	"github.com/splitsub/splitsub/internal/integration/stripe"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
	"github.com/splitsub/splitsub/internal/repository"
	"github.com/splitsub/splitsub/internal/service"
)

func init() {
	// Everything runs in UTC
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,

			postgres.NewDB,
			providePostgresClient,

			repository.NewUserRepository,
			repository.NewPlanRepository,
			repository.NewMembershipRepository,
			repository.NewWebhookEventRepository,

			auth.NewTokenProvider,
			stripe.NewGateway,
			email.NewClient,
			email.NewService,
			service.NewPlanLock,

			service.NewServiceParams,
			service.NewAuthService,
			service.NewUserService,
			service.NewPriceService,
			service.NewPlanService,
			service.NewSubscriptionService,
			service.NewWebhookService,

			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}

func providePostgresClient(db *postgres.DB) postgres.IClient {
	return db
}

func provideHandlers(
	logger *logger.Logger,
	authService service.AuthService,
	userService service.UserService,
	planService service.PlanService,
	subscriptionService service.SubscriptionService,
	webhookService service.WebhookService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Auth:         v1.NewAuthHandler(authService, logger),
		User:         v1.NewUserHandler(userService, logger),
		Plan:         v1.NewPlanHandler(planService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		Webhook:      v1.NewWebhookHandler(webhookService, logger),
	}
}

func provideRouter(handlers api.Handlers, tokens *auth.TokenProvider, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, tokens, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			db.Close()
			return nil
		},
	})
}
