package service

import (
	"context"

	"github.com/sourcegraph/conc"

	"github.com/splitsub/splitsub/internal/domain/billing"
	"github.com/splitsub/splitsub/internal/domain/webhookevent"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/types"
)

type WebhookService interface {
	// HandleEvent verifies and dispatches one raw processor event. An
	// error is returned only when the payload cannot be authenticated or
	// decoded; dispatch failures are logged and swallowed so the
	// processor never retries an event we have already acted on.
	HandleEvent(ctx context.Context, payload []byte, signature string) error
}

type webhookService struct {
	ServiceParams
	price PriceService
}

func NewWebhookService(params ServiceParams, price PriceService) WebhookService {
	return &webhookService{ServiceParams: params, price: price}
}

func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.Gateway.ParseWebhookEvent(payload, signature)
	if err != nil {
		return err
	}

	// First writer wins: a redelivered event id is acknowledged and
	// dropped without touching the ledger again
	fresh, err := s.WebhookEventRepo.MarkProcessed(ctx, webhookevent.New(event.ID, event.Type))
	if err != nil {
		s.Logger.Errorw("failed to record webhook event", "event_id", event.ID, "error", err)
		return nil
	}
	if !fresh {
		s.Logger.Infow("skipping replayed webhook event", "event_id", event.ID, "type", event.Type)
		return nil
	}

	s.Logger.Infow("processing webhook event", "event_id", event.ID, "type", event.Type)

	switch event.Type {
	case types.WebhookEventTypeSubscriptionCreated:
		s.handleSubscriptionCreated(ctx, event)
	case types.WebhookEventTypeInvoicePaymentOK:
		s.handlePaymentSucceeded(ctx, event)
	case types.WebhookEventTypeInvoicePaymentFail:
		s.handlePaymentFailed(ctx, event)
	default:
		s.Logger.Debugw("ignoring webhook event", "event_id", event.ID, "type", event.Type)
	}
	return nil
}

// handleSubscriptionCreated makes the joiner's price the plan's active
// price and brings every other member onto it. The two legs are
// independent and run concurrently.
func (s *webhookService) handleSubscriptionCreated(ctx context.Context, event *billing.WebhookEvent) {
	// Lock first, read second: the active price must be observed under
	// the lock or two racing events both see the same stale price
	unlock := s.PlanLock.Lock(event.ProductID)
	defer unlock()

	p, err := s.PlanRepo.Get(ctx, event.ProductID)
	if err != nil {
		s.Logger.Errorw("webhook references unknown plan",
			"event_id", event.ID,
			"product_id", event.ProductID,
			"error", err)
		return
	}

	// Replay guard on content: when the active price already matches the
	// event there is nothing to archive and nobody is behind the price
	alreadyActive := p.ActivePriceID != nil && *p.ActivePriceID == event.PriceID
	oldPriceID := p.ActivePriceID

	aggregate, err := s.MembershipRepo.AggregateQuantity(ctx, p.ID)
	if err != nil {
		s.Logger.Errorw("failed to read aggregate quantity",
			"event_id", event.ID,
			"plan_id", p.ID,
			"error", err)
		return
	}
	perUnit := s.price.PerUnitAmount(p.PerCycleCost, aggregate)

	var wg conc.WaitGroup
	wg.Go(func() {
		if alreadyActive {
			return
		}
		if err := s.PlanRepo.UpdateActivePrice(ctx, p.ID, event.PriceID); err != nil {
			s.Logger.Errorw("failed to persist new active price",
				"event_id", event.ID,
				"plan_id", p.ID,
				"error", err)
			return
		}
		if oldPriceID != nil && *oldPriceID != event.PriceID {
			if err := s.Gateway.DeactivatePrice(ctx, *oldPriceID); err != nil {
				s.Logger.Errorw("failed to archive superseded price",
					"event_id", event.ID,
					"plan_id", p.ID,
					"price_id", *oldPriceID,
					"error", err)
			}
		}
	})
	wg.Go(func() {
		s.price.FanOutPrice(ctx, p, event.PriceID, perUnit, event.SubscriptionID)
	})
	wg.Wait()

	s.Logger.Infow("subscription created processed",
		"event_id", event.ID,
		"plan_id", p.ID,
		"subscription_id", event.SubscriptionID,
		"username", event.Username,
		"price_id", event.PriceID)
}

func (s *webhookService) handlePaymentSucceeded(ctx context.Context, event *billing.WebhookEvent) {
	if event.InvoiceSubscriptionID == "" {
		s.Logger.Debugw("invoice event without subscription", "event_id", event.ID)
		return
	}

	err := s.MembershipRepo.UpdateStatusBySubscription(ctx, event.InvoiceSubscriptionID, types.MembershipStatusActive)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("payment succeeded for unknown subscription",
				"event_id", event.ID,
				"subscription_id", event.InvoiceSubscriptionID)
			return
		}
		s.Logger.Errorw("failed to activate membership",
			"event_id", event.ID,
			"subscription_id", event.InvoiceSubscriptionID,
			"error", err)
		return
	}

	s.Logger.Infow("membership activated",
		"event_id", event.ID,
		"subscription_id", event.InvoiceSubscriptionID)
}

// handlePaymentFailed only records the failure for now. The membership
// stays pending and is resolved manually or by the next billing cycle.
func (s *webhookService) handlePaymentFailed(ctx context.Context, event *billing.WebhookEvent) {
	m, err := s.MembershipRepo.GetBySubscription(ctx, event.InvoiceSubscriptionID)
	if err != nil {
		s.Logger.Warnw("payment failed for unknown subscription",
			"event_id", event.ID,
			"subscription_id", event.InvoiceSubscriptionID)
		return
	}

	s.Logger.Warnw("payment failed",
		"event_id", event.ID,
		"plan_id", m.PlanID,
		"username", m.Username,
		"subscription_id", event.InvoiceSubscriptionID)
}
