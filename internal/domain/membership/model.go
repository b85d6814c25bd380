package membership

import (
	"github.com/splitsub/splitsub/internal/types"
)

// Membership is the billing relation between one user and one plan. The
// (username, plan_id) pair is unique, so joining twice updates rather
// than duplicates. Quantity 0 means known-but-not-paying; subscription fields
// are set only once the member has a subscription at the processor.
type Membership struct {
	Username           string                 `db:"username" json:"username"`
	PlanID             string                 `db:"plan_id" json:"plan_id"`
	Quantity           int64                  `db:"quantity" json:"quantity"`
	IsOwner            bool                   `db:"is_owner" json:"is_owner"`
	Status             types.MembershipStatus `db:"status" json:"status"`
	SubscriptionID     *string                `db:"subscription_id" json:"subscription_id"`
	SubscriptionItemID *string                `db:"subscription_item_id" json:"subscription_item_id"`
	// PriceID is the price the member's subscription item currently bills
	// on. Used to find members left behind after a price supersession.
	PriceID *string `db:"price_id" json:"price_id"`
	types.BaseModel
}

// NewOwner returns the owner membership created together with a plan.
// Owners start at quantity 0: their units only count once they join as a
// paying member like anyone else.
func NewOwner(username, planID string) *Membership {
	return &Membership{
		Username:  username,
		PlanID:    planID,
		Quantity:  0,
		IsOwner:   true,
		Status:    types.MembershipStatusActive,
		BaseModel: types.GetDefaultBaseModel(),
	}
}

// Contact is a membership with the member's email, used for fan-out and
// notification after a price change
type Contact struct {
	Username           string  `db:"username"`
	Email              string  `db:"email"`
	SubscriptionID     *string `db:"subscription_id"`
	SubscriptionItemID *string `db:"subscription_item_id"`
	Quantity           int64   `db:"quantity"`
}
