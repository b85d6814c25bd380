package plan

import (
	"time"

	"github.com/splitsub/splitsub/internal/types"
)

// Plan is a recurring shared expense. Its ID is the payment processor's
// product reference; ActivePriceID points to at most one live price object
// at a time. Superseded prices are archived, never edited.
type Plan struct {
	ID             string               `db:"id" json:"id"`
	JoinCode       string               `db:"join_code" json:"join_code"`
	Name           string               `db:"name" json:"name"`
	CycleFrequency types.CycleFrequency `db:"cycle_frequency" json:"cycle_frequency"`
	// PerCycleCost is the plan's total cost per billing cycle in integer
	// minor currency units (always 100x the decimal value the owner
	// supplied). It is fixed at creation and never recomputed.
	PerCycleCost  int64     `db:"per_cycle_cost" json:"per_cycle_cost"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	ActivePriceID *string   `db:"active_price_id" json:"active_price_id"`
	types.BaseModel
}

func New(productID, name string, cycleFrequency types.CycleFrequency, perCycleCost int64, startDate time.Time) *Plan {
	return &Plan{
		ID:             productID,
		JoinCode:       types.GenerateJoinCode(),
		Name:           name,
		CycleFrequency: cycleFrequency,
		PerCycleCost:   perCycleCost,
		StartDate:      startDate,
		BaseModel:      types.GetDefaultBaseModel(),
	}
}

// Member is a plan member as seen in plan views
type Member struct {
	Username         string `db:"username" json:"username"`
	FirstName        string `db:"first_name" json:"first_name"`
	LastName         string `db:"last_name" json:"last_name"`
	StripeCustomerID string `db:"stripe_customer_id" json:"-"`
	Quantity         int64  `db:"quantity" json:"quantity"`
}

// Snapshot is a single consistent read of a plan with its owner and the
// members currently paying (quantity > 0), excluding the requester
type Snapshot struct {
	Plan          *Plan
	Owner         *Member
	ActiveMembers []*Member
}

// Overview is one row of a user's plan listing: the plan joined with the
// user's own membership on it and the plan's owner
type Overview struct {
	Plan               *Plan
	Owner              *Member
	Quantity           int64
	SubscriptionID     *string
	SubscriptionItemID *string
}
