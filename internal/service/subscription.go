package service

import (
	"context"
	"time"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/domain/billing"
	"github.com/splitsub/splitsub/internal/domain/membership"
	"github.com/splitsub/splitsub/internal/domain/plan"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/types"
)

type SubscriptionService interface {
	// Join subscribes a user to a plan through its join code. The returned
	// client secret finishes payment setup client-side; the membership
	// stays pending until the processor confirms payment.
	Join(ctx context.Context, username string, req *dto.JoinPlanRequest) (*dto.JoinPlanResponse, error)

	// Cancel removes the user from the plan and tears down their
	// subscription. A leaving owner names a successor while other members
	// remain; the last member leaving deletes the plan.
	Cancel(ctx context.Context, username, planID string, req *dto.CancelMembershipRequest) error

	// EditQuantity changes how many units the member pays for and
	// repropagates the resulting price to the rest of the plan
	EditQuantity(ctx context.Context, username, planID string, req *dto.EditQuantityRequest) error
}

type subscriptionService struct {
	ServiceParams
	price PriceService
}

func NewSubscriptionService(params ServiceParams, price PriceService) SubscriptionService {
	return &subscriptionService{ServiceParams: params, price: price}
}

func (s *subscriptionService) Join(ctx context.Context, username string, req *dto.JoinPlanRequest) (*dto.JoinPlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PlanRepo.GetByJoinCode(ctx, req.JoinCode)
	if err != nil {
		return nil, err
	}

	unlock := s.PlanLock.Lock(p.ID)
	defer unlock()

	u, err := s.UserRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	existing, err := s.MembershipRepo.Get(ctx, username, p.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil && existing.SubscriptionID != nil {
		return nil, ierr.NewError("already subscribed").
			WithHint("You already have a subscription on this plan").
			Mark(ierr.ErrAlreadyExists)
	}

	aggregate, err := s.MembershipRepo.AggregateQuantity(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	newAggregate := aggregate + req.Quantity
	perUnit := s.price.PerUnitAmount(p.PerCycleCost, newAggregate)

	// The price the joiner subscribes on is minted here; it becomes the
	// plan's active price once the processor confirms the subscription
	priceID, err := s.Gateway.CreatePrice(ctx, billing.CreatePriceRequest{
		ProductID:      p.ID,
		UnitAmount:     perUnit,
		Currency:       s.Config.Stripe.Currency,
		CycleFrequency: p.CycleFrequency,
	})
	if err != nil {
		return nil, err
	}

	subReq := billing.CreateSubscriptionRequest{
		CustomerID: u.StripeCustomerID,
		PriceID:    priceID,
		Quantity:   req.Quantity,
		Username:   username,
	}
	// Billing starts at the plan start date when it is still ahead
	if p.StartDate.After(time.Now()) {
		trialEnd := p.StartDate
		subReq.TrialEnd = &trialEnd
	}

	setup, err := s.Gateway.CreateSubscription(ctx, subReq)
	if err != nil {
		return nil, err
	}

	m := existing
	if m == nil {
		m = &membership.Membership{
			Username:  username,
			PlanID:    p.ID,
			BaseModel: types.GetDefaultBaseModel(),
		}
	}
	m.Quantity = req.Quantity
	m.Status = types.MembershipStatusPendingSetup
	m.SubscriptionID = &setup.SubscriptionID
	m.SubscriptionItemID = &setup.SubscriptionItemID
	m.PriceID = &priceID

	if err := s.MembershipRepo.Upsert(ctx, m); err != nil {
		return nil, err
	}

	s.Logger.Infow("member joined plan",
		"plan_id", p.ID,
		"username", username,
		"quantity", req.Quantity,
		"subscription_id", setup.SubscriptionID)
	return &dto.JoinPlanResponse{
		PlanID:            p.ID,
		SubscriptionID:    setup.SubscriptionID,
		ClientSecret:      setup.ClientSecret,
		PerUnitCost:       types.DecimalStringFromCents(perUnit),
		AggregateQuantity: newAggregate,
	}, nil
}

func (s *subscriptionService) Cancel(ctx context.Context, username, planID string, req *dto.CancelMembershipRequest) error {
	unlock := s.PlanLock.Lock(planID)
	defer unlock()

	p, err := s.PlanRepo.Get(ctx, planID)
	if err != nil {
		return err
	}
	m, err := s.MembershipRepo.Get(ctx, username, planID)
	if err != nil {
		return err
	}

	excludeSub := ""
	if m.SubscriptionID != nil {
		excludeSub = *m.SubscriptionID
	}
	others, err := s.MembershipRepo.ListOthersOnPlan(ctx, planID, excludeSub)
	if err != nil {
		return err
	}

	var successor *membership.Membership
	if m.IsOwner && len(others) > 0 {
		successor, err = s.resolveSuccessor(ctx, m, req)
		if err != nil {
			return err
		}
	}

	if m.SubscriptionID != nil {
		if err := s.Gateway.CancelSubscription(ctx, *m.SubscriptionID); err != nil {
			return err
		}
	}

	// One atomic handoff. The departing owner's row is removed before the
	// successor's flag is set: the ledger allows one owner per plan, so
	// the reverse order would trip the uniqueness constraint.
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.MembershipRepo.Delete(ctx, username, planID); err != nil {
			return err
		}
		if successor != nil {
			return s.MembershipRepo.SetOwner(ctx, successor.Username, planID, true)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if successor != nil {
		s.Logger.Infow("plan ownership transferred",
			"plan_id", planID,
			"from", username,
			"to", successor.Username)
	}

	if len(others) == 0 {
		return s.deletePlan(ctx, p)
	}

	// The member's units left the pool; remaining members split the cost
	// across fewer units
	newPriceID, perUnit, err := s.price.Reconcile(ctx, p)
	if err != nil {
		s.Logger.Errorw("price reconciliation failed after cancellation",
			"plan_id", planID,
			"error", err)
		return nil
	}
	s.price.FanOutPrice(ctx, p, newPriceID, perUnit, "")

	s.Logger.Infow("member left plan", "plan_id", planID, "username", username)
	return nil
}

// resolveSuccessor validates the named successor before anything is torn
// down. It only reads; the handoff itself happens transactionally in
// Cancel.
func (s *subscriptionService) resolveSuccessor(ctx context.Context, m *membership.Membership, req *dto.CancelMembershipRequest) (*membership.Membership, error) {
	if req == nil || req.SuccessorUsername == "" {
		return nil, ierr.NewError("successor required").
			WithHint("Name another member to take over the plan before leaving").
			Mark(ierr.ErrValidation)
	}
	if req.SuccessorUsername == m.Username {
		return nil, ierr.NewError("successor is the departing owner").
			WithHint("Name another member to take over the plan").
			Mark(ierr.ErrValidation)
	}

	successor, err := s.MembershipRepo.Get(ctx, req.SuccessorUsername, m.PlanID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("successor is not a member").
				WithHintf("%s is not a member of this plan", req.SuccessorUsername).
				Mark(ierr.ErrValidation)
		}
		return nil, err
	}
	return successor, nil
}

func (s *subscriptionService) deletePlan(ctx context.Context, p *plan.Plan) error {
	if p.ActivePriceID != nil {
		if err := s.Gateway.DeactivatePrice(ctx, *p.ActivePriceID); err != nil {
			s.Logger.Errorw("failed to archive price of deleted plan",
				"plan_id", p.ID,
				"price_id", *p.ActivePriceID,
				"error", err)
		}
	}
	if err := s.PlanRepo.Delete(ctx, p.ID); err != nil {
		return err
	}

	s.Logger.Infow("plan deleted", "plan_id", p.ID)
	return nil
}

func (s *subscriptionService) EditQuantity(ctx context.Context, username, planID string, req *dto.EditQuantityRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	unlock := s.PlanLock.Lock(planID)
	defer unlock()

	p, err := s.PlanRepo.Get(ctx, planID)
	if err != nil {
		return err
	}
	m, err := s.MembershipRepo.Get(ctx, username, planID)
	if err != nil {
		return err
	}
	if m.SubscriptionID == nil || m.Status != types.MembershipStatusActive {
		return ierr.NewError("membership not active").
			WithHint("Only active members can change their quantity").
			Mark(ierr.ErrValidation)
	}

	oldQuantity := m.Quantity
	m.Quantity = req.Quantity
	if err := s.MembershipRepo.Upsert(ctx, m); err != nil {
		return err
	}

	newPriceID, perUnit, err := s.price.Reconcile(ctx, p)
	if err != nil {
		s.revertQuantity(ctx, m, oldQuantity)
		return err
	}

	// The editor's own item moves to the new price and quantity first
	err = s.Gateway.UpdateSubscriptionItemPrice(ctx, billing.UpdateItemRequest{
		SubscriptionID:     *m.SubscriptionID,
		SubscriptionItemID: derefString(m.SubscriptionItemID),
		PriceID:            newPriceID,
		Quantity:           req.Quantity,
	})
	if err != nil {
		// The processor still bills the old quantity; the ledger must
		// agree with it
		s.revertQuantity(ctx, m, oldQuantity)
		return err
	}
	if err := s.MembershipRepo.UpdatePriceBySubscription(ctx, *m.SubscriptionID, newPriceID); err != nil {
		return err
	}

	s.price.FanOutPrice(ctx, p, newPriceID, perUnit, *m.SubscriptionID)

	s.Logger.Infow("member quantity changed",
		"plan_id", planID,
		"username", username,
		"quantity", req.Quantity)
	return nil
}

func (s *subscriptionService) revertQuantity(ctx context.Context, m *membership.Membership, quantity int64) {
	m.Quantity = quantity
	if err := s.MembershipRepo.Upsert(ctx, m); err != nil {
		s.Logger.Errorw("failed to restore member quantity",
			"plan_id", m.PlanID,
			"username", m.Username,
			"quantity", quantity,
			"error", err)
	}
}
