package repository

import (
	"github.com/splitsub/splitsub/internal/domain/membership"
	"github.com/splitsub/splitsub/internal/domain/plan"
	"github.com/splitsub/splitsub/internal/domain/user"
	"github.com/splitsub/splitsub/internal/domain/webhookevent"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
	postgresRepo "github.com/splitsub/splitsub/internal/repository/postgres"
)

func NewUserRepository(db *postgres.DB, logger *logger.Logger) user.Repository {
	return postgresRepo.NewUserRepository(db, logger)
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger)
}

func NewMembershipRepository(db *postgres.DB, logger *logger.Logger) membership.Repository {
	return postgresRepo.NewMembershipRepository(db, logger)
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return postgresRepo.NewWebhookEventRepository(db, logger)
}
