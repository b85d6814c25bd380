package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/splitsub/splitsub/internal/domain/plan"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
	"github.com/splitsub/splitsub/internal/types"
)

type planRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return &planRepository{db: db, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `INSERT INTO plans (id, join_code, name, cycle_frequency, per_cycle_cost, start_date, active_price_id, created_at, updated_at)
		VALUES (:id, :join_code, :name, :cycle_frequency, :per_cycle_cost, :start_date, :active_price_id, :created_at, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A plan with this id or join code already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	query := `SELECT * FROM plans WHERE id = $1`

	var p plan.Plan
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Plan %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) GetByJoinCode(ctx context.Context, joinCode string) (*plan.Plan, error) {
	query := `SELECT * FROM plans WHERE join_code = $1`

	var p plan.Plan
	err := r.db.GetContext(ctx, &p, query, joinCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No plan matches this join code").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) GetSnapshot(ctx context.Context, id, requester string) (*plan.Snapshot, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ownerQuery := `SELECT u.username, u.first_name, u.last_name, u.stripe_customer_id, m.quantity
		FROM memberships m
		JOIN users u ON u.username = m.username
		WHERE m.plan_id = $1 AND m.is_owner`

	var owner plan.Member
	if err := r.db.GetContext(ctx, &owner, ownerQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Plan %s has no owner", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan owner").
			Mark(ierr.ErrDatabase)
	}

	membersQuery := `SELECT u.username, u.first_name, u.last_name, u.stripe_customer_id, m.quantity
		FROM memberships m
		JOIN users u ON u.username = m.username
		WHERE m.plan_id = $1 AND m.quantity > 0 AND m.status = $2 AND m.username <> $3
		ORDER BY m.created_at`

	members := []*plan.Member{}
	if err := r.db.SelectContext(ctx, &members, membersQuery, id, types.MembershipStatusActive, requester); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plan members").
			Mark(ierr.ErrDatabase)
	}

	return &plan.Snapshot{Plan: p, Owner: &owner, ActiveMembers: members}, nil
}

func (r *planRepository) UpdateActivePrice(ctx context.Context, id, priceID string) error {
	query := `UPDATE plans SET active_price_id = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, priceID, time.Now().UTC(), id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update plan price").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("plan not found").
			WithHintf("Plan %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *planRepository) ListByUser(ctx context.Context, username string) ([]*plan.Overview, error) {
	query := `SELECT
			p.id, p.join_code, p.name, p.cycle_frequency, p.per_cycle_cost, p.start_date, p.active_price_id, p.created_at, p.updated_at,
			o.username AS owner_username, o.first_name AS owner_first_name, o.last_name AS owner_last_name,
			m.quantity, m.subscription_id, m.subscription_item_id
		FROM memberships m
		JOIN plans p ON p.id = m.plan_id
		JOIN memberships om ON om.plan_id = p.id AND om.is_owner
		JOIN users o ON o.username = om.username
		WHERE m.username = $1
		ORDER BY p.created_at`

	var rows []struct {
		plan.Plan
		OwnerUsername      string  `db:"owner_username"`
		OwnerFirstName     string  `db:"owner_first_name"`
		OwnerLastName      string  `db:"owner_last_name"`
		Quantity           int64   `db:"quantity"`
		SubscriptionID     *string `db:"subscription_id"`
		SubscriptionItemID *string `db:"subscription_item_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, username); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}

	overviews := make([]*plan.Overview, 0, len(rows))
	for i := range rows {
		row := rows[i]
		overviews = append(overviews, &plan.Overview{
			Plan: &row.Plan,
			Owner: &plan.Member{
				Username:  row.OwnerUsername,
				FirstName: row.OwnerFirstName,
				LastName:  row.OwnerLastName,
			},
			Quantity:           row.Quantity,
			SubscriptionID:     row.SubscriptionID,
			SubscriptionItemID: row.SubscriptionItemID,
		})
	}
	return overviews, nil
}

func (r *planRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM plans WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete plan").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("plan not found").
			WithHintf("Plan %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
