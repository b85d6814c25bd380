package service

import (
	"context"

	"github.com/sourcegraph/conc"

	"github.com/splitsub/splitsub/internal/domain/billing"
	"github.com/splitsub/splitsub/internal/domain/membership"
	"github.com/splitsub/splitsub/internal/domain/plan"
)

type PriceService interface {
	// PerUnitAmount splits the plan's per-cycle total across quantity
	// units, rounding up so the total is always covered
	PerUnitAmount(totalCents, quantity int64) int64

	// Reconcile recomputes the per-unit amount from the current aggregate
	// and, when it moved, mints a new price, archives the previous one and
	// records the new price as active. Returns the active price id and the
	// per-unit amount it bills.
	Reconcile(ctx context.Context, p *plan.Plan) (string, int64, error)

	// FanOutPrice pushes the plan's price to every subscribed member whose
	// item still bills on an older price, excluding excludeSubscriptionID.
	// Tasks are independent: a failure is logged and does not stop the
	// rest.
	FanOutPrice(ctx context.Context, p *plan.Plan, priceID string, perUnit int64, excludeSubscriptionID string)
}

type priceService struct {
	ServiceParams
}

func NewPriceService(params ServiceParams) PriceService {
	return &priceService{ServiceParams: params}
}

func (s *priceService) PerUnitAmount(totalCents, quantity int64) int64 {
	if quantity < 1 {
		quantity = 1
	}
	return (totalCents + quantity - 1) / quantity
}

func (s *priceService) Reconcile(ctx context.Context, p *plan.Plan) (string, int64, error) {
	aggregate, err := s.MembershipRepo.AggregateQuantity(ctx, p.ID)
	if err != nil {
		return "", 0, err
	}
	perUnit := s.PerUnitAmount(p.PerCycleCost, aggregate)

	newPriceID, err := s.Gateway.CreatePrice(ctx, billing.CreatePriceRequest{
		ProductID:      p.ID,
		UnitAmount:     perUnit,
		Currency:       s.Config.Stripe.Currency,
		CycleFrequency: p.CycleFrequency,
	})
	if err != nil {
		// Nothing was persisted: the old price stays authoritative
		return "", 0, err
	}

	oldPriceID := p.ActivePriceID

	if err := s.PlanRepo.UpdateActivePrice(ctx, p.ID, newPriceID); err != nil {
		return "", 0, err
	}
	p.ActivePriceID = &newPriceID

	if oldPriceID != nil && *oldPriceID != newPriceID {
		if err := s.Gateway.DeactivatePrice(ctx, *oldPriceID); err != nil {
			// The superseded price is no longer referenced; archival is
			// retried on the next reconciliation of this plan
			s.Logger.Errorw("failed to archive superseded price",
				"plan_id", p.ID,
				"price_id", *oldPriceID,
				"error", err)
		}
	}

	s.Logger.Infow("reconciled plan price",
		"plan_id", p.ID,
		"price_id", newPriceID,
		"aggregate_quantity", aggregate,
		"per_unit_cents", perUnit)
	return newPriceID, perUnit, nil
}

func (s *priceService) FanOutPrice(ctx context.Context, p *plan.Plan, priceID string, perUnit int64, excludeSubscriptionID string) {
	contacts, err := s.MembershipRepo.ListBehindPrice(ctx, p.ID, priceID)
	if err != nil {
		s.Logger.Errorw("failed to list members for price fan-out",
			"plan_id", p.ID,
			"error", err)
		return
	}

	var wg conc.WaitGroup
	for _, c := range contacts {
		if c.SubscriptionID == nil || *c.SubscriptionID == excludeSubscriptionID {
			continue
		}
		contact := c
		wg.Go(func() {
			s.updateMemberPrice(ctx, p, contact, priceID, perUnit)
		})
	}
	wg.Wait()
}

func (s *priceService) updateMemberPrice(ctx context.Context, p *plan.Plan, contact *membership.Contact, priceID string, perUnit int64) {
	err := s.Gateway.UpdateSubscriptionItemPrice(ctx, billing.UpdateItemRequest{
		SubscriptionID:     *contact.SubscriptionID,
		SubscriptionItemID: derefString(contact.SubscriptionItemID),
		PriceID:            priceID,
		Quantity:           contact.Quantity,
	})
	if err != nil {
		s.Logger.Errorw("failed to push new price to member",
			"plan_id", p.ID,
			"username", contact.Username,
			"subscription_id", *contact.SubscriptionID,
			"error", err)
		return
	}

	if err := s.MembershipRepo.UpdatePriceBySubscription(ctx, *contact.SubscriptionID, priceID); err != nil {
		s.Logger.Errorw("failed to record member price update",
			"plan_id", p.ID,
			"username", contact.Username,
			"error", err)
		return
	}

	s.Email.SendPriceChangeNotice(ctx, contact.Email, p.Name, perUnit, p.CycleFrequency)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
