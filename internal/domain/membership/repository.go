package membership

import (
	"context"

	"github.com/splitsub/splitsub/internal/types"
)

type Repository interface {
	// Upsert inserts or updates the membership keyed by (username,
	// plan_id) with last-write-wins semantics on quantity, status and
	// subscription fields
	Upsert(ctx context.Context, m *Membership) error
	Get(ctx context.Context, username, planID string) (*Membership, error)
	GetBySubscription(ctx context.Context, subscriptionID string) (*Membership, error)
	Delete(ctx context.Context, username, planID string) error
	// AggregateQuantity recomputes the plan's total billable units from
	// the current membership rows. Derived, never cached.
	AggregateQuantity(ctx context.Context, planID string) (int64, error)
	// ListOthersOnPlan returns subscribed members of the plan other than
	// the given subscription, with contact emails
	ListOthersOnPlan(ctx context.Context, planID, excludeSubscriptionID string) ([]*Contact, error)
	// ListBehindPrice returns subscribed members of the plan whose
	// subscription item does not yet bill on priceID
	ListBehindPrice(ctx context.Context, planID, priceID string) ([]*Contact, error)
	UpdateStatusBySubscription(ctx context.Context, subscriptionID string, status types.MembershipStatus) error
	UpdatePriceBySubscription(ctx context.Context, subscriptionID, priceID string) error
	SetOwner(ctx context.Context, username, planID string, isOwner bool) error
}
