package service

import (
	"github.com/splitsub/splitsub/internal/auth"
	"github.com/splitsub/splitsub/internal/config"
	"github.com/splitsub/splitsub/internal/domain/billing"
	"github.com/splitsub/splitsub/internal/domain/membership"
	"github.com/splitsub/splitsub/internal/domain/plan"
	"github.com/splitsub/splitsub/internal/domain/user"
	"github.com/splitsub/splitsub/internal/domain/webhookevent"
	"github.com/splitsub/splitsub/internal/email"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
)

// ServiceParams holds the common dependencies every service is built from
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	UserRepo         user.Repository
	PlanRepo         plan.Repository
	MembershipRepo   membership.Repository
	WebhookEventRepo webhookevent.Repository

	Gateway  billing.Gateway
	Email    email.Sender
	Tokens   *auth.TokenProvider
	PlanLock *PlanLock
}

func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	userRepo user.Repository,
	planRepo plan.Repository,
	membershipRepo membership.Repository,
	webhookEventRepo webhookevent.Repository,
	gateway billing.Gateway,
	emailSender email.Sender,
	tokens *auth.TokenProvider,
	planLock *PlanLock,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		UserRepo:         userRepo,
		PlanRepo:         planRepo,
		MembershipRepo:   membershipRepo,
		WebhookEventRepo: webhookEventRepo,
		Gateway:          gateway,
		Email:            emailSender,
		Tokens:           tokens,
		PlanLock:         planLock,
	}
}
