package billing

import (
	"context"
	"time"

	"github.com/splitsub/splitsub/internal/types"
)

// Gateway is the narrow contract the core depends on for the external
// payment processor. The processor's price and subscription objects are an
// eventually-synchronized secondary view of ledger state, never the
// primary; every operation here is a blocking external call.
type Gateway interface {
	// CreateCustomer registers a billing customer and returns its reference
	CreateCustomer(ctx context.Context, name, email string) (string, error)

	// CreateProduct creates the product object backing a plan
	CreateProduct(ctx context.Context, name string) (string, error)

	// CreatePrice mints a new recurring price object. Prices are immutable
	// once created; cost changes supersede them via DeactivatePrice.
	CreatePrice(ctx context.Context, req CreatePriceRequest) (string, error)

	// DeactivatePrice archives a superseded price object
	DeactivatePrice(ctx context.Context, priceID string) error

	// CreateSubscription creates a subscription in deferred-payment mode:
	// it is not live until the processor confirms payment setup through a
	// webhook event
	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*SubscriptionSetup, error)

	// UpdateSubscriptionItemPrice moves one member's subscription item to
	// a new price with no proration: the billed amount changes only at the
	// next cycle boundary
	UpdateSubscriptionItemPrice(ctx context.Context, req UpdateItemRequest) error

	// CancelSubscription tears down a member's subscription
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// CreatePortalSession returns a URL where the customer can edit their
	// payment methods
	CreatePortalSession(ctx context.Context, customerID string) (string, error)

	// ParseWebhookEvent authenticates a raw inbound event against the
	// shared signing secret and decodes it. A signature mismatch is an
	// authentication error and must be rejected before any dispatch.
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

type CreatePriceRequest struct {
	ProductID      string
	UnitAmount     int64 // minor currency units per member
	Currency       string
	CycleFrequency types.CycleFrequency
}

type UpdateItemRequest struct {
	SubscriptionID     string
	SubscriptionItemID string
	PriceID            string
	Quantity           int64
}

type CreateSubscriptionRequest struct {
	CustomerID string
	PriceID    string
	Quantity   int64
	// TrialEnd defers the first charge to the plan start date when that
	// date is still in the future
	TrialEnd *time.Time
	// Username travels as metadata so webhook events can be attributed
	Username string
}

// SubscriptionSetup is the result of a deferred-mode subscription
// creation: the references to record immediately plus the secret the
// member needs to confirm payment setup client-side
type SubscriptionSetup struct {
	SubscriptionID     string
	SubscriptionItemID string
	ClientSecret       string
}

// WebhookEvent is a verified, decoded processor notification
type WebhookEvent struct {
	ID   string
	Type types.WebhookEventType

	// Subscription fields, set for subscription events
	SubscriptionID     string
	CustomerID         string
	SubscriptionItemID string
	PriceID            string
	ProductID          string
	Quantity           int64
	Username           string // from caller-supplied metadata

	// InvoiceSubscriptionID is set for invoice-level payment events
	InvoiceSubscriptionID string
}
