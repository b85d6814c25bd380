package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/splitsub/splitsub/internal/domain/membership"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
	"github.com/splitsub/splitsub/internal/types"
)

type membershipRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewMembershipRepository(db *postgres.DB, logger *logger.Logger) membership.Repository {
	return &membershipRepository{db: db, logger: logger}
}

func (r *membershipRepository) Upsert(ctx context.Context, m *membership.Membership) error {
	query := `INSERT INTO memberships (username, plan_id, quantity, is_owner, status, subscription_id, subscription_item_id, price_id, created_at, updated_at)
		VALUES (:username, :plan_id, :quantity, :is_owner, :status, :subscription_id, :subscription_item_id, :price_id, :created_at, :updated_at)
		ON CONFLICT (username, plan_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			status = EXCLUDED.status,
			subscription_id = EXCLUDED.subscription_id,
			subscription_item_id = EXCLUDED.subscription_item_id,
			price_id = EXCLUDED.price_id,
			updated_at = EXCLUDED.updated_at`

	m.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save membership").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *membershipRepository) Get(ctx context.Context, username, planID string) (*membership.Membership, error) {
	query := `SELECT * FROM memberships WHERE username = $1 AND plan_id = $2`

	var m membership.Membership
	err := r.db.GetContext(ctx, &m, query, username, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("Membership was not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get membership").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *membershipRepository) GetBySubscription(ctx context.Context, subscriptionID string) (*membership.Membership, error) {
	query := `SELECT * FROM memberships WHERE subscription_id = $1`

	var m membership.Membership
	err := r.db.GetContext(ctx, &m, query, subscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("No membership for subscription %s", subscriptionID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get membership").
			Mark(ierr.ErrDatabase)
	}
	return &m, nil
}

func (r *membershipRepository) Delete(ctx context.Context, username, planID string) error {
	query := `DELETE FROM memberships WHERE username = $1 AND plan_id = $2`

	if _, err := r.db.ExecContext(ctx, query, username, planID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete membership").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *membershipRepository) AggregateQuantity(ctx context.Context, planID string) (int64, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM memberships WHERE plan_id = $1`

	var total int64
	if err := r.db.GetContext(ctx, &total, query, planID); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to aggregate plan quantity").
			Mark(ierr.ErrDatabase)
	}
	return total, nil
}

func (r *membershipRepository) ListOthersOnPlan(ctx context.Context, planID, excludeSubscriptionID string) ([]*membership.Contact, error) {
	query := `SELECT m.username, u.email, m.subscription_id, m.subscription_item_id, m.quantity
		FROM memberships m
		JOIN users u ON u.username = m.username
		WHERE m.plan_id = $1
			AND m.subscription_id IS NOT NULL
			AND m.subscription_id <> $2
		ORDER BY m.created_at`

	contacts := []*membership.Contact{}
	if err := r.db.SelectContext(ctx, &contacts, query, planID, excludeSubscriptionID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plan members").
			Mark(ierr.ErrDatabase)
	}
	return contacts, nil
}

func (r *membershipRepository) ListBehindPrice(ctx context.Context, planID, priceID string) ([]*membership.Contact, error) {
	query := `SELECT m.username, u.email, m.subscription_id, m.subscription_item_id, m.quantity
		FROM memberships m
		JOIN users u ON u.username = m.username
		WHERE m.plan_id = $1
			AND m.subscription_id IS NOT NULL
			AND (m.price_id IS NULL OR m.price_id <> $2)
		ORDER BY m.created_at`

	contacts := []*membership.Contact{}
	if err := r.db.SelectContext(ctx, &contacts, query, planID, priceID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plan members").
			Mark(ierr.ErrDatabase)
	}
	return contacts, nil
}

func (r *membershipRepository) UpdateStatusBySubscription(ctx context.Context, subscriptionID string, status types.MembershipStatus) error {
	query := `UPDATE memberships SET status = $1, updated_at = $2 WHERE subscription_id = $3`

	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), subscriptionID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update membership status").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("membership not found").
			WithHintf("No membership for subscription %s", subscriptionID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *membershipRepository) UpdatePriceBySubscription(ctx context.Context, subscriptionID, priceID string) error {
	query := `UPDATE memberships SET price_id = $1, updated_at = $2 WHERE subscription_id = $3`

	if _, err := r.db.ExecContext(ctx, query, priceID, time.Now().UTC(), subscriptionID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update membership price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *membershipRepository) SetOwner(ctx context.Context, username, planID string, isOwner bool) error {
	query := `UPDATE memberships SET is_owner = $1, updated_at = $2 WHERE username = $3 AND plan_id = $4`

	res, err := r.db.ExecContext(ctx, query, isOwner, time.Now().UTC(), username, planID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update membership owner flag").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("membership not found").
			WithHint("Membership was not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
