package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"

	ierr "github.com/splitsub/splitsub/internal/errors"
)

func (g *Gateway) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	params := &stripe.CustomerCreateParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}

	customer, err := g.client.V1Customers.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create customer in Stripe").
			Mark(ierr.ErrHTTPClient)
	}

	g.logger.Debugw("created stripe customer", "customer_id", customer.ID)
	return customer.ID, nil
}

func (g *Gateway) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	params := &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(g.cfg.PortalReturnURL),
	}

	session, err := g.client.V1BillingPortalSessions.Create(ctx, params)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create billing portal session").
			Mark(ierr.ErrHTTPClient)
	}
	return session.URL, nil
}
