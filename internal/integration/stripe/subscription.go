package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"

	"github.com/splitsub/splitsub/internal/domain/billing"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

func (g *Gateway) CreateSubscription(ctx context.Context, req billing.CreateSubscriptionRequest) (*billing.SubscriptionSetup, error) {
	params := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(req.CustomerID),
		Items: []*stripe.SubscriptionCreateItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(req.Quantity),
			},
		},
		// Deferred mode: the subscription only goes live once the customer
		// confirms a payment method with the returned client secret
		PaymentBehavior: stripe.String("default_incomplete"),
		Metadata: map[string]string{
			"username": req.Username,
		},
	}
	if req.TrialEnd != nil {
		params.TrialEnd = stripe.Int64(req.TrialEnd.Unix())
	}
	params.AddExpand("pending_setup_intent")

	sub, err := g.client.V1Subscriptions.Create(ctx, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create subscription in Stripe").
			WithReportableDetails(map[string]interface{}{
				"customer_id": req.CustomerID,
				"price_id":    req.PriceID,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	setup := &billing.SubscriptionSetup{SubscriptionID: sub.ID}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		setup.SubscriptionItemID = sub.Items.Data[0].ID
	}
	if sub.PendingSetupIntent != nil {
		setup.ClientSecret = sub.PendingSetupIntent.ClientSecret
	}

	g.logger.Infow("created stripe subscription",
		"subscription_id", sub.ID,
		"customer_id", req.CustomerID,
		"username", req.Username)
	return setup, nil
}

func (g *Gateway) UpdateSubscriptionItemPrice(ctx context.Context, req billing.UpdateItemRequest) error {
	params := &stripe.SubscriptionItemUpdateParams{
		Price:    stripe.String(req.PriceID),
		Quantity: stripe.Int64(req.Quantity),
		// Amounts change at the next cycle boundary only
		ProrationBehavior: stripe.String("none"),
	}

	if _, err := g.client.V1SubscriptionItems.Update(ctx, req.SubscriptionItemID, params); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to move subscription %s to the new price", req.SubscriptionID).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if _, err := g.client.V1Subscriptions.Cancel(ctx, subscriptionID, nil); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to cancel subscription %s in Stripe", subscriptionID).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}
