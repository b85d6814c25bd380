package service

import (
	"context"

	"github.com/samber/lo"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/domain/billing"
	"github.com/splitsub/splitsub/internal/domain/membership"
	"github.com/splitsub/splitsub/internal/domain/plan"
	"github.com/splitsub/splitsub/internal/types"
)

type PlanService interface {
	CreatePlan(ctx context.Context, owner string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, planID, requester string) (*dto.PlanResponse, error)
	GetPlanByJoinCode(ctx context.Context, joinCode string) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context, username string) ([]*dto.PlanOverviewResponse, error)
	CreatePortalSession(ctx context.Context, username string) (*dto.PortalSessionResponse, error)
}

type planService struct {
	ServiceParams
	price PriceService
}

func NewPlanService(params ServiceParams, price PriceService) PlanService {
	return &planService{ServiceParams: params, price: price}
}

func (s *planService) CreatePlan(ctx context.Context, owner string, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	costCents, err := types.CentsFromDecimalString(req.PerCycleCost)
	if err != nil {
		return nil, err
	}
	frequency, err := types.ParseCycleFrequency(req.CycleFrequency)
	if err != nil {
		return nil, err
	}

	productID, err := s.Gateway.CreateProduct(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	p := plan.New(productID, req.Name, frequency, costCents, req.StartDate)

	// Nobody pays yet, so the initial price carries the full cost
	perUnit := s.price.PerUnitAmount(costCents, 0)
	priceID, err := s.Gateway.CreatePrice(ctx, billing.CreatePriceRequest{
		ProductID:      productID,
		UnitAmount:     perUnit,
		Currency:       s.Config.Stripe.Currency,
		CycleFrequency: frequency,
	})
	if err != nil {
		return nil, err
	}
	p.ActivePriceID = &priceID

	// Plan row and owner membership are one atomic write
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.PlanRepo.Create(ctx, p); err != nil {
			return err
		}
		return s.MembershipRepo.Upsert(ctx, membership.NewOwner(owner, p.ID))
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("plan created",
		"plan_id", p.ID,
		"owner", owner,
		"per_cycle_cost", costCents,
		"cycle_frequency", frequency)
	return dto.NewPlanResponse(p), nil
}

func (s *planService) GetPlan(ctx context.Context, planID, requester string) (*dto.PlanResponse, error) {
	snapshot, err := s.PlanRepo.GetSnapshot(ctx, planID, requester)
	if err != nil {
		return nil, err
	}

	resp := dto.NewPlanResponse(snapshot.Plan)
	resp.Owner = dto.NewMemberResponse(snapshot.Owner)
	resp.ActiveMembers = lo.Map(snapshot.ActiveMembers, func(m *plan.Member, _ int) *dto.MemberResponse {
		return dto.NewMemberResponse(m)
	})
	return resp, nil
}

// GetPlanByJoinCode resolves a join link to the plan it invites into
func (s *planService) GetPlanByJoinCode(ctx context.Context, joinCode string) (*dto.PlanResponse, error) {
	p, err := s.PlanRepo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	return dto.NewPlanResponse(p), nil
}

func (s *planService) ListPlans(ctx context.Context, username string) ([]*dto.PlanOverviewResponse, error) {
	overviews, err := s.PlanRepo.ListByUser(ctx, username)
	if err != nil {
		return nil, err
	}

	return lo.Map(overviews, func(o *plan.Overview, _ int) *dto.PlanOverviewResponse {
		return &dto.PlanOverviewResponse{
			Plan:     dto.NewPlanResponse(o.Plan),
			Owner:    dto.NewMemberResponse(o.Owner),
			Quantity: o.Quantity,
			IsJoined: o.SubscriptionID != nil,
		}
	}), nil
}

func (s *planService) CreatePortalSession(ctx context.Context, username string) (*dto.PortalSessionResponse, error) {
	u, err := s.UserRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	url, err := s.Gateway.CreatePortalSession(ctx, u.StripeCustomerID)
	if err != nil {
		return nil, err
	}
	return &dto.PortalSessionResponse{URL: url}, nil
}
