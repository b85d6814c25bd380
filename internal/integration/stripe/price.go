package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"

	"github.com/splitsub/splitsub/internal/domain/billing"
	ierr "github.com/splitsub/splitsub/internal/errors"
)

func (g *Gateway) CreateProduct(ctx context.Context, name string) (string, error) {
	params := &stripe.ProductCreateParams{
		Name: stripe.String(name),
	}

	product, err := g.client.V1Products.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create product in Stripe").
			Mark(ierr.ErrHTTPClient)
	}
	return product.ID, nil
}

func (g *Gateway) CreatePrice(ctx context.Context, req billing.CreatePriceRequest) (string, error) {
	params := &stripe.PriceCreateParams{
		Product:    stripe.String(req.ProductID),
		UnitAmount: stripe.Int64(req.UnitAmount),
		Currency:   stripe.String(req.Currency),
		Recurring: &stripe.PriceCreateRecurringParams{
			Interval: stripe.String(req.CycleFrequency.Interval()),
		},
	}

	price, err := g.client.V1Prices.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create price in Stripe").
			WithReportableDetails(map[string]interface{}{
				"product_id":  req.ProductID,
				"unit_amount": req.UnitAmount,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	g.logger.Debugw("created stripe price",
		"price_id", price.ID,
		"product_id", req.ProductID,
		"unit_amount", req.UnitAmount)
	return price.ID, nil
}

// DeactivatePrice archives a price. Stripe prices cannot be deleted once
// used; archiving keeps them out of new subscriptions.
func (g *Gateway) DeactivatePrice(ctx context.Context, priceID string) error {
	params := &stripe.PriceUpdateParams{
		Active: stripe.Bool(false),
	}

	if _, err := g.client.V1Prices.Update(ctx, priceID, params); err != nil {
		return ierr.WithError(err).
			WithHintf("Failed to archive price %s in Stripe", priceID).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}
