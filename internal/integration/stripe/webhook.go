package stripe

import (
	"encoding/json"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/splitsub/splitsub/internal/domain/billing"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/types"
)

// ParseWebhookEvent verifies the signature against the endpoint secret and
// decodes the event into a domain value. Unsigned or tampered payloads are
// rejected here, before any dispatch.
func (g *Gateway) ParseWebhookEvent(payload []byte, signature string) (*billing.WebhookEvent, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, options)
	if err != nil {
		g.logger.Errorw("stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrAuthentication)
	}

	out := &billing.WebhookEvent{
		ID:   event.ID,
		Type: types.WebhookEventType(event.Type),
	}

	switch out.Type {
	case types.WebhookEventTypeSubscriptionCreated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Malformed subscription payload").
				Mark(ierr.ErrValidation)
		}
		out.SubscriptionID = sub.ID
		out.Username = sub.Metadata["username"]
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 {
			item := sub.Items.Data[0]
			out.SubscriptionItemID = item.ID
			out.Quantity = item.Quantity
			if item.Price != nil {
				out.PriceID = item.Price.ID
				if item.Price.Product != nil {
					out.ProductID = item.Price.Product.ID
				}
			}
		}

	case types.WebhookEventTypeInvoicePaymentOK, types.WebhookEventTypeInvoicePaymentFail:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Malformed invoice payload").
				Mark(ierr.ErrValidation)
		}
		out.InvoiceSubscriptionID = invoiceSubscriptionID(&invoice, event.Data.Raw)
	}

	return out, nil
}

// invoiceSubscriptionID digs the subscription reference out of an invoice.
// Newer API versions nest it under parent.subscription_details; older
// payloads carry a top-level subscription field.
func invoiceSubscriptionID(invoice *stripe.Invoice, raw json.RawMessage) string {
	if invoice.Parent != nil &&
		invoice.Parent.SubscriptionDetails != nil &&
		invoice.Parent.SubscriptionDetails.Subscription != nil {
		return invoice.Parent.SubscriptionDetails.Subscription.ID
	}

	var legacy struct {
		Subscription string `json:"subscription"`
	}
	if err := json.Unmarshal(raw, &legacy); err == nil {
		return legacy.Subscription
	}
	return ""
}
