package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/testutil"
	"github.com/splitsub/splitsub/internal/types"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	planService         PlanService
	subscriptionService SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	price := NewPriceService(params)
	s.planService = NewPlanService(params, price)
	s.subscriptionService = NewSubscriptionService(params, price)
}

func (s *SubscriptionServiceSuite) seedUser(username string) *user.User {
	u := user.NewUser(username, "First", "Last", username+"@example.com", "digest", "cus_"+username)
	s.NoError(s.GetStores().UserRepo.Create(s.GetContext(), u))
	return u
}

func (s *SubscriptionServiceSuite) createPlan(owner string, startDate time.Time) *dto.PlanResponse {
	resp, err := s.planService.CreatePlan(s.GetContext(), owner, &dto.CreatePlanRequest{
		Name:           "Family Video",
		PerCycleCost:   "15.00",
		CycleFrequency: "monthly",
		StartDate:      startDate,
	})
	s.NoError(err)
	return resp
}

// join subscribes and immediately activates, standing in for the webhook
// that normally confirms payment
func (s *SubscriptionServiceSuite) join(username, joinCode string, quantity int64) *dto.JoinPlanResponse {
	resp, err := s.subscriptionService.Join(s.GetContext(), username, &dto.JoinPlanRequest{
		JoinCode: joinCode,
		Quantity: quantity,
	})
	s.Require().NoError(err)

	err = s.GetStores().MembershipRepo.UpdateStatusBySubscription(
		s.GetContext(), resp.SubscriptionID, types.MembershipStatusActive)
	s.Require().NoError(err)
	return resp
}

func (s *SubscriptionServiceSuite) TestJoin() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))

	resp, err := s.subscriptionService.Join(s.GetContext(), "bob", &dto.JoinPlanRequest{
		JoinCode: p.JoinCode,
		Quantity: 2,
	})
	s.NoError(err)
	s.Equal(p.ID, resp.PlanID)
	s.NotEmpty(resp.SubscriptionID)
	s.NotEmpty(resp.ClientSecret)
	s.Equal(int64(2), resp.AggregateQuantity)
	// 1500 cents across 2 units
	s.Equal("7.50", resp.PerUnitCost)

	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", p.ID)
	s.NoError(err)
	s.Equal(types.MembershipStatusPendingSetup, m.Status, "membership stays pending until payment confirms")
	s.Equal(int64(2), m.Quantity)
	s.Require().NotNil(m.SubscriptionID)
	s.Equal(resp.SubscriptionID, *m.SubscriptionID)
	s.NotNil(m.SubscriptionItemID)
	s.Require().NotNil(m.PriceID)
	s.Equal(s.GetGateway().LastPriceID(), *m.PriceID)

	// The joiner's subscription starts billing at the plan start date
	s.Require().Len(s.GetGateway().Subscriptions, 1)
	sub := s.GetGateway().Subscriptions[0]
	s.Equal("cus_bob", sub.CustomerID)
	s.Equal("bob", sub.Username)
	s.NotNil(sub.TrialEnd)
}

func (s *SubscriptionServiceSuite) TestJoinStartedPlanBillsImmediately() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(-24*time.Hour))

	s.join("bob", p.JoinCode, 1)

	s.Require().Len(s.GetGateway().Subscriptions, 1)
	s.Nil(s.GetGateway().Subscriptions[0].TrialEnd)
}

func (s *SubscriptionServiceSuite) TestJoinPerUnitRoundsUp() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))

	resp := s.join("bob", p.JoinCode, 4)
	// 1500 / 4 = 375 exactly
	s.Equal("3.75", resp.PerUnitCost)

	s.seedUser("eve")
	resp = s.join("eve", p.JoinCode, 3)
	// 1500 / 7 rounds up to 215 so the total stays covered
	s.Equal(int64(7), resp.AggregateQuantity)
	s.Equal("2.15", resp.PerUnitCost)
}

func (s *SubscriptionServiceSuite) TestJoinTwiceRejected() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))

	s.join("bob", p.JoinCode, 1)

	_, err := s.subscriptionService.Join(s.GetContext(), "bob", &dto.JoinPlanRequest{
		JoinCode: p.JoinCode,
		Quantity: 1,
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *SubscriptionServiceSuite) TestJoinUnknownCode() {
	s.seedUser("bob")

	_, err := s.subscriptionService.Join(s.GetContext(), "bob", &dto.JoinPlanRequest{
		JoinCode: "bogus",
		Quantity: 1,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestConcurrentJoinsSerialize() {
	s.seedUser("ada")
	s.seedUser("bob")
	s.seedUser("eve")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))

	var wg sync.WaitGroup
	responses := make([]*dto.JoinPlanResponse, 2)
	for i, join := range []struct {
		username string
		quantity int64
	}{{"bob", 1}, {"eve", 2}} {
		wg.Add(1)
		go func(i int, username string, quantity int64) {
			defer wg.Done()
			resp, err := s.subscriptionService.Join(s.GetContext(), username, &dto.JoinPlanRequest{
				JoinCode: p.JoinCode,
				Quantity: quantity,
			})
			s.NoError(err)
			responses[i] = resp
		}(i, join.username, join.quantity)
	}
	wg.Wait()

	// The plan lock serializes the two joins, so whichever ran second saw
	// the full pool
	total, err := s.GetStores().MembershipRepo.AggregateQuantity(s.GetContext(), p.ID)
	s.NoError(err)
	s.Equal(int64(3), total)
	s.True(responses[0].AggregateQuantity == 3 || responses[1].AggregateQuantity == 3)
}

func (s *SubscriptionServiceSuite) TestCancelReconcilesRemainingMembers() {
	s.seedUser("ada")
	s.seedUser("bob")
	s.seedUser("eve")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))
	bob := s.join("bob", p.JoinCode, 1)
	s.join("eve", p.JoinCode, 2)

	err := s.subscriptionService.Cancel(s.GetContext(), "bob", p.ID, nil)
	s.NoError(err)

	s.Equal([]string{bob.SubscriptionID}, s.GetGateway().Cancelled)
	_, err = s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", p.ID)
	s.True(ierr.IsNotFound(err))

	// eve now carries the whole cost over 2 units
	stored, err := s.GetStores().PlanRepo.Get(s.GetContext(), p.ID)
	s.NoError(err)
	s.Require().NotNil(stored.ActivePriceID)
	newPrice := s.GetGateway().LastPriceID()
	s.Equal(newPrice, *stored.ActivePriceID)
	s.Equal(int64(750), s.GetGateway().Prices[len(s.GetGateway().Prices)-1].UnitAmount)

	eve, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "eve", p.ID)
	s.NoError(err)
	s.Require().NotNil(eve.PriceID)
	s.Equal(newPrice, *eve.PriceID)

	notices := s.GetEmailSender().ByKind("price_change")
	s.Require().Len(notices, 1)
	s.Equal("eve@example.com", notices[0].To)
	s.Equal(int64(750), notices[0].Cents)
}

func (s *SubscriptionServiceSuite) TestLastMemberLeavingDeletesPlan() {
	s.seedUser("ada")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))

	stored, err := s.GetStores().PlanRepo.Get(s.GetContext(), p.ID)
	s.NoError(err)
	activePrice := *stored.ActivePriceID

	err = s.subscriptionService.Cancel(s.GetContext(), "ada", p.ID, nil)
	s.NoError(err)

	_, err = s.GetStores().PlanRepo.Get(s.GetContext(), p.ID)
	s.True(ierr.IsNotFound(err))
	s.Contains(s.GetGateway().Archived, activePrice)
	s.Empty(s.GetGateway().Cancelled, "the owner had no subscription to cancel")
}

func (s *SubscriptionServiceSuite) TestOwnerMustNameSuccessor() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))
	s.join("bob", p.JoinCode, 1)

	err := s.subscriptionService.Cancel(s.GetContext(), "ada", p.ID, nil)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	err = s.subscriptionService.Cancel(s.GetContext(), "ada", p.ID, &dto.CancelMembershipRequest{
		SuccessorUsername: "eve",
	})
	s.Error(err, "the successor must already be a member")
	s.True(ierr.IsValidation(err))

	err = s.subscriptionService.Cancel(s.GetContext(), "ada", p.ID, &dto.CancelMembershipRequest{
		SuccessorUsername: "ada",
	})
	s.Error(err, "the departing owner cannot succeed themself")
	s.True(ierr.IsValidation(err))

	err = s.subscriptionService.Cancel(s.GetContext(), "ada", p.ID, &dto.CancelMembershipRequest{
		SuccessorUsername: "bob",
	})
	s.NoError(err)

	bob, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", p.ID)
	s.NoError(err)
	s.True(bob.IsOwner)
	_, err = s.GetStores().MembershipRepo.Get(s.GetContext(), "ada", p.ID)
	s.True(ierr.IsNotFound(err))

	// Exactly one owner row remains after the handoff
	owners := 0
	for _, m := range s.GetStores().MembershipRepo.ListByPlan(p.ID) {
		if m.IsOwner {
			owners++
		}
	}
	s.Equal(1, owners)
}

func (s *SubscriptionServiceSuite) TestSecondOwnerRowRejected() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))
	s.join("bob", p.JoinCode, 1)

	// With the original owner's row still flagged, flagging another
	// member must fail the way the database's one-owner index does
	err := s.GetStores().MembershipRepo.SetOwner(s.GetContext(), "bob", p.ID, true)
	s.Error(err)
	s.True(ierr.IsDatabase(err))

	bob, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", p.ID)
	s.NoError(err)
	s.False(bob.IsOwner)
}

func (s *SubscriptionServiceSuite) TestEditQuantityFailureRestoresQuantity() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))
	bob := s.join("bob", p.JoinCode, 1)

	s.GetGateway().FailCreatePrice = true
	err := s.subscriptionService.EditQuantity(s.GetContext(), "bob", p.ID, &dto.EditQuantityRequest{
		Quantity: 5,
	})
	s.Error(err)

	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", p.ID)
	s.NoError(err)
	s.Equal(int64(1), m.Quantity, "the ledger must keep billing what the processor bills")

	// Same when minting succeeds but the item update fails
	s.GetGateway().FailCreatePrice = false
	s.GetGateway().FailItemUpdateFor[bob.SubscriptionID] = true
	err = s.subscriptionService.EditQuantity(s.GetContext(), "bob", p.ID, &dto.EditQuantityRequest{
		Quantity: 5,
	})
	s.Error(err)

	m, err = s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", p.ID)
	s.NoError(err)
	s.Equal(int64(1), m.Quantity)
}

func (s *SubscriptionServiceSuite) TestEditQuantity() {
	s.seedUser("ada")
	s.seedUser("bob")
	s.seedUser("eve")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))
	bob := s.join("bob", p.JoinCode, 1)
	eve := s.join("eve", p.JoinCode, 2)

	err := s.subscriptionService.EditQuantity(s.GetContext(), "bob", p.ID, &dto.EditQuantityRequest{
		Quantity: 3,
	})
	s.NoError(err)

	// 1500 over 5 units rounds up to 300
	newPrice := s.GetGateway().LastPriceID()
	s.Equal(int64(300), s.GetGateway().Prices[len(s.GetGateway().Prices)-1].UnitAmount)

	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", p.ID)
	s.NoError(err)
	s.Equal(int64(3), m.Quantity)
	s.Equal(newPrice, *m.PriceID)

	// Both the editor and the bystander moved to the new price
	updatedSubs := map[string]int64{}
	for _, u := range s.GetGateway().ItemUpdates {
		if u.PriceID == newPrice {
			updatedSubs[u.SubscriptionID] = u.Quantity
		}
	}
	s.Equal(int64(3), updatedSubs[bob.SubscriptionID])
	s.Equal(int64(2), updatedSubs[eve.SubscriptionID])

	// Only the bystander is notified; the editor made the change
	notices := s.GetEmailSender().ByKind("price_change")
	s.Require().Len(notices, 1)
	s.Equal("eve@example.com", notices[0].To)
}

func (s *SubscriptionServiceSuite) TestEditQuantityRequiresActiveMembership() {
	s.seedUser("ada")
	s.seedUser("bob")
	p := s.createPlan("ada", time.Now().Add(24*time.Hour))

	// Joined but payment never confirmed
	_, err := s.subscriptionService.Join(s.GetContext(), "bob", &dto.JoinPlanRequest{
		JoinCode: p.JoinCode,
		Quantity: 1,
	})
	s.NoError(err)

	err = s.subscriptionService.EditQuantity(s.GetContext(), "bob", p.ID, &dto.EditQuantityRequest{
		Quantity: 2,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}
