package plan

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	GetByJoinCode(ctx context.Context, joinCode string) (*Plan, error)
	// GetSnapshot reads the plan, its owner and its active members
	// (quantity > 0, requester excluded) as one consistent snapshot
	GetSnapshot(ctx context.Context, id, requester string) (*Snapshot, error)
	// UpdateActivePrice makes priceID the plan's single active price
	UpdateActivePrice(ctx context.Context, id, priceID string) error
	// ListByUser returns every plan the user belongs to, with the user's
	// own membership fields and the plan owner attached
	ListByUser(ctx context.Context, username string) ([]*Overview, error)
	Delete(ctx context.Context, id string) error
}
