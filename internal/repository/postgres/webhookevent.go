package postgres

import (
	"context"

	"github.com/splitsub/splitsub/internal/domain/webhookevent"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
)

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, event *webhookevent.Event) (bool, error) {
	query := `INSERT INTO webhook_events (id, event_type, created_at, updated_at)
		VALUES (:id, :event_type, :created_at, :updated_at)
		ON CONFLICT (id) DO NOTHING`

	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to record webhook event").
			Mark(ierr.ErrDatabase)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to record webhook event").
			Mark(ierr.ErrDatabase)
	}
	return n > 0, nil
}
