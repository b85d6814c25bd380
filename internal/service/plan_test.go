package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/domain/membership"
	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/testutil"
	"github.com/splitsub/splitsub/internal/types"
)

type PlanServiceSuite struct {
	testutil.BaseServiceTestSuite
	planService PlanService
}

func TestPlanService(t *testing.T) {
	suite.Run(t, new(PlanServiceSuite))
}

func (s *PlanServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.planService = NewPlanService(params, NewPriceService(params))
}

func (s *PlanServiceSuite) seedUser(username string) *user.User {
	u := user.NewUser(username, "First", "Last", username+"@example.com", "digest", "cus_"+username)
	s.NoError(s.GetStores().UserRepo.Create(s.GetContext(), u))
	return u
}

func (s *PlanServiceSuite) createPlan(owner string) *dto.PlanResponse {
	resp, err := s.planService.CreatePlan(s.GetContext(), owner, &dto.CreatePlanRequest{
		Name:           "Family Video",
		PerCycleCost:   "15.00",
		CycleFrequency: "monthly",
		StartDate:      time.Now().Add(24 * time.Hour),
	})
	s.NoError(err)
	return resp
}

func (s *PlanServiceSuite) TestCreatePlan() {
	s.seedUser("ada")
	resp := s.createPlan("ada")

	s.NotEmpty(resp.ID)
	s.NotEmpty(resp.JoinCode)
	s.Equal("15.00", resp.PerCycleCost)
	s.Equal("monthly", resp.CycleFrequency)

	// Provisioned against the processor: a product and one initial price
	s.Len(s.GetGateway().Products, 1)
	s.Require().Len(s.GetGateway().Prices, 1)
	s.Equal(resp.ID, s.GetGateway().Prices[0].ProductID)
	// Nobody pays yet, so the first price carries the full cost
	s.Equal(int64(1500), s.GetGateway().Prices[0].UnitAmount)

	p, err := s.GetStores().PlanRepo.Get(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Require().NotNil(p.ActivePriceID)
	s.Equal(s.GetGateway().LastPriceID(), *p.ActivePriceID)

	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "ada", resp.ID)
	s.NoError(err)
	s.True(m.IsOwner)
	s.Equal(int64(0), m.Quantity, "the owner does not pay until they join")
	s.Equal(types.MembershipStatusActive, m.Status)
	s.Nil(m.SubscriptionID)
}

func (s *PlanServiceSuite) TestCreatePlanRejectsSubCentCost() {
	s.seedUser("ada")

	_, err := s.planService.CreatePlan(s.GetContext(), "ada", &dto.CreatePlanRequest{
		Name:           "Family Video",
		PerCycleCost:   "10.999",
		CycleFrequency: "monthly",
		StartDate:      time.Now().Add(24 * time.Hour),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetGateway().Products, "no product is provisioned for a rejected plan")
}

func (s *PlanServiceSuite) TestCreatePlanRejectsUnknownFrequency() {
	s.seedUser("ada")

	_, err := s.planService.CreatePlan(s.GetContext(), "ada", &dto.CreatePlanRequest{
		Name:           "Family Video",
		PerCycleCost:   "10.00",
		CycleFrequency: "fortnightly",
		StartDate:      time.Now().Add(24 * time.Hour),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PlanServiceSuite) TestGetPlanByJoinCode() {
	s.seedUser("ada")
	created := s.createPlan("ada")

	resp, err := s.planService.GetPlanByJoinCode(s.GetContext(), created.JoinCode)
	s.NoError(err)
	s.Equal(created.ID, resp.ID)

	_, err = s.planService.GetPlanByJoinCode(s.GetContext(), "bogus")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PlanServiceSuite) TestGetPlanExcludesRequesterFromMembers() {
	s.seedUser("ada")
	s.seedUser("bob")
	s.seedUser("eve")
	created := s.createPlan("ada")

	s.activateMember("bob", created.ID, 1, "sub_bob")
	s.activateMember("eve", created.ID, 2, "sub_eve")

	resp, err := s.planService.GetPlan(s.GetContext(), created.ID, "bob")
	s.NoError(err)
	s.Require().NotNil(resp.Owner)
	s.Equal("ada", resp.Owner.Username)
	// bob sees the other members but not themself
	s.Require().Len(resp.ActiveMembers, 1)
	s.Equal("eve", resp.ActiveMembers[0].Username)
	s.Equal(int64(2), resp.ActiveMembers[0].Quantity)
}

func (s *PlanServiceSuite) TestListPlans() {
	s.seedUser("ada")
	s.seedUser("bob")
	created := s.createPlan("ada")
	s.activateMember("bob", created.ID, 1, "sub_bob")

	ownerView, err := s.planService.ListPlans(s.GetContext(), "ada")
	s.NoError(err)
	s.Require().Len(ownerView, 1)
	s.Equal(created.ID, ownerView[0].Plan.ID)
	s.Equal("ada", ownerView[0].Owner.Username)
	s.False(ownerView[0].IsJoined, "owning is not paying")

	memberView, err := s.planService.ListPlans(s.GetContext(), "bob")
	s.NoError(err)
	s.Require().Len(memberView, 1)
	s.True(memberView[0].IsJoined)
	s.Equal(int64(1), memberView[0].Quantity)

	strangerView, err := s.planService.ListPlans(s.GetContext(), "eve")
	s.NoError(err)
	s.Empty(strangerView)
}

func (s *PlanServiceSuite) TestCreatePortalSession() {
	u := s.seedUser("ada")

	resp, err := s.planService.CreatePortalSession(s.GetContext(), "ada")
	s.NoError(err)
	s.Contains(resp.URL, u.StripeCustomerID)
	s.Equal([]string{u.StripeCustomerID}, s.GetGateway().PortalVisits)
}

func (s *PlanServiceSuite) activateMember(username, planID string, quantity int64, subscriptionID string) {
	m := &membership.Membership{
		Username:       username,
		PlanID:         planID,
		Quantity:       quantity,
		Status:         types.MembershipStatusActive,
		SubscriptionID: &subscriptionID,
		BaseModel:      types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().MembershipRepo.Upsert(s.GetContext(), m))
}
