package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/splitsub/splitsub/internal/domain/billing"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

var _ billing.Gateway = (*FakeBillingGateway)(nil)

// FakeBillingGateway is a billing.Gateway that hands out deterministic
// ids and records every call for assertions. Failure switches make
// individual operations fail on demand.
type FakeBillingGateway struct {
	mu      sync.Mutex
	counter int

	Customers     []string
	Products      []string
	Prices        []billing.CreatePriceRequest
	PriceIDs      []string
	Archived      []string
	Subscriptions []billing.CreateSubscriptionRequest
	ItemUpdates   []billing.UpdateItemRequest
	Cancelled     []string
	PortalVisits  []string

	// NextEvent is returned by ParseWebhookEvent when ParseErr is nil
	NextEvent *billing.WebhookEvent
	ParseErr  error

	FailCreatePrice bool
	// FailItemUpdateFor makes UpdateSubscriptionItemPrice fail for the
	// given subscription ids
	FailItemUpdateFor map[string]bool
}

func NewFakeBillingGateway() *FakeBillingGateway {
	return &FakeBillingGateway{FailItemUpdateFor: make(map[string]bool)}
}

func (g *FakeBillingGateway) nextID(prefix string) string {
	g.counter++
	return fmt.Sprintf("%s_%03d", prefix, g.counter)
}

func (g *FakeBillingGateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID("cus")
	g.Customers = append(g.Customers, id)
	return id, nil
}

func (g *FakeBillingGateway) CreateProduct(ctx context.Context, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID("prod")
	g.Products = append(g.Products, id)
	return id, nil
}

func (g *FakeBillingGateway) CreatePrice(ctx context.Context, req billing.CreatePriceRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailCreatePrice {
		return "", ierr.NewError("price creation failed").
			WithHint("Failed to create price in Stripe").
			Mark(ierr.ErrHTTPClient)
	}

	id := g.nextID("price")
	g.Prices = append(g.Prices, req)
	g.PriceIDs = append(g.PriceIDs, id)
	return id, nil
}

func (g *FakeBillingGateway) DeactivatePrice(ctx context.Context, priceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Archived = append(g.Archived, priceID)
	return nil
}

func (g *FakeBillingGateway) CreateSubscription(ctx context.Context, req billing.CreateSubscriptionRequest) (*billing.SubscriptionSetup, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Subscriptions = append(g.Subscriptions, req)
	subID := g.nextID("sub")
	return &billing.SubscriptionSetup{
		SubscriptionID:     subID,
		SubscriptionItemID: g.nextID("si"),
		ClientSecret:       g.nextID("seti") + "_secret",
	}, nil
}

func (g *FakeBillingGateway) UpdateSubscriptionItemPrice(ctx context.Context, req billing.UpdateItemRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailItemUpdateFor[req.SubscriptionID] {
		return ierr.NewError("item update failed").
			WithHint("Failed to move subscription to the new price").
			Mark(ierr.ErrHTTPClient)
	}

	g.ItemUpdates = append(g.ItemUpdates, req)
	return nil
}

func (g *FakeBillingGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Cancelled = append(g.Cancelled, subscriptionID)
	return nil
}

func (g *FakeBillingGateway) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.PortalVisits = append(g.PortalVisits, customerID)
	return "https://billing.example.com/session/" + customerID, nil
}

func (g *FakeBillingGateway) ParseWebhookEvent(payload []byte, signature string) (*billing.WebhookEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ParseErr != nil {
		return nil, g.ParseErr
	}
	if g.NextEvent == nil {
		return nil, ierr.NewError("no event queued").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrAuthentication)
	}
	event := *g.NextEvent
	return &event, nil
}

// LastPriceID returns the most recently minted price id
func (g *FakeBillingGateway) LastPriceID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.PriceIDs) == 0 {
		return ""
	}
	return g.PriceIDs[len(g.PriceIDs)-1]
}
