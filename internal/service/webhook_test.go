package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/splitsub/splitsub/internal/api/dto"
	"github.com/splitsub/splitsub/internal/domain/billing"
	"github.com/splitsub/splitsub/internal/domain/user"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/testutil"
	"github.com/splitsub/splitsub/internal/types"
)

type WebhookServiceSuite struct {
	testutil.BaseServiceTestSuite
	planService         PlanService
	subscriptionService SubscriptionService
	webhookService      WebhookService

	plan *dto.PlanResponse
	bob  *dto.JoinPlanResponse
}

func TestWebhookService(t *testing.T) {
	suite.Run(t, new(WebhookServiceSuite))
}

func (s *WebhookServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	price := NewPriceService(params)
	s.planService = NewPlanService(params, price)
	s.subscriptionService = NewSubscriptionService(params, price)
	s.webhookService = NewWebhookService(params, price)

	for _, username := range []string{"ada", "bob", "eve"} {
		u := user.NewUser(username, "First", "Last", username+"@example.com", "digest", "cus_"+username)
		s.Require().NoError(s.GetStores().UserRepo.Create(s.GetContext(), u))
	}

	var err error
	s.plan, err = s.planService.CreatePlan(s.GetContext(), "ada", &dto.CreatePlanRequest{
		Name:           "Family Video",
		PerCycleCost:   "15.00",
		CycleFrequency: "monthly",
		StartDate:      time.Now().Add(24 * time.Hour),
	})
	s.Require().NoError(err)

	s.bob, err = s.subscriptionService.Join(s.GetContext(), "bob", &dto.JoinPlanRequest{
		JoinCode: s.plan.JoinCode,
		Quantity: 1,
	})
	s.Require().NoError(err)
}

func (s *WebhookServiceSuite) handle(event *billing.WebhookEvent) {
	s.GetGateway().NextEvent = event
	s.Require().NoError(s.webhookService.HandleEvent(s.GetContext(), []byte("{}"), "sig"))
}

func (s *WebhookServiceSuite) subscriptionCreated(id string) *billing.WebhookEvent {
	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", s.plan.ID)
	s.Require().NoError(err)

	return &billing.WebhookEvent{
		ID:             id,
		Type:           types.WebhookEventTypeSubscriptionCreated,
		SubscriptionID: s.bob.SubscriptionID,
		CustomerID:     "cus_bob",
		PriceID:        *m.PriceID,
		ProductID:      s.plan.ID,
		Quantity:       1,
		Username:       "bob",
	}
}

func (s *WebhookServiceSuite) TestSubscriptionCreatedActivatesJoinerPrice() {
	stored, err := s.GetStores().PlanRepo.Get(s.GetContext(), s.plan.ID)
	s.Require().NoError(err)
	initialPrice := *stored.ActivePriceID

	// eve is already subscribed on the initial price
	eve := s.activateMember("eve", 2, initialPrice)

	event := s.subscriptionCreated("evt_1")
	s.handle(event)

	// The joiner's price became the plan's active price and the old one
	// was archived
	stored, err = s.GetStores().PlanRepo.Get(s.GetContext(), s.plan.ID)
	s.NoError(err)
	s.Equal(event.PriceID, *stored.ActivePriceID)
	s.Contains(s.GetGateway().Archived, initialPrice)

	// eve was pulled onto the new price at her own quantity
	s.Require().Len(s.GetGateway().ItemUpdates, 1)
	update := s.GetGateway().ItemUpdates[0]
	s.Equal(eve, update.SubscriptionID)
	s.Equal(event.PriceID, update.PriceID)
	s.Equal(int64(2), update.Quantity)

	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "eve", s.plan.ID)
	s.NoError(err)
	s.Equal(event.PriceID, *m.PriceID)

	// 1500 cents over 3 units
	notices := s.GetEmailSender().ByKind("price_change")
	s.Require().Len(notices, 1)
	s.Equal("eve@example.com", notices[0].To)
	s.Equal(int64(500), notices[0].Cents)
}

func (s *WebhookServiceSuite) TestReplayedEventSkipped() {
	stored, err := s.GetStores().PlanRepo.Get(s.GetContext(), s.plan.ID)
	s.Require().NoError(err)
	s.activateMember("eve", 2, *stored.ActivePriceID)

	s.handle(s.subscriptionCreated("evt_1"))
	archived := len(s.GetGateway().Archived)
	updates := len(s.GetGateway().ItemUpdates)

	// Same event id again: acknowledged, nothing re-done
	s.handle(s.subscriptionCreated("evt_1"))
	s.Len(s.GetGateway().Archived, archived)
	s.Len(s.GetGateway().ItemUpdates, updates)
}

func (s *WebhookServiceSuite) TestRedeliveryUnderNewIDArchivesNothing() {
	s.handle(s.subscriptionCreated("evt_1"))
	archived := len(s.GetGateway().Archived)

	// The processor can redeliver the same content under a fresh event
	// id; the active price already matches, so there is nothing to
	// archive and nobody is behind it
	s.handle(s.subscriptionCreated("evt_2"))
	s.Len(s.GetGateway().Archived, archived)
}

func (s *WebhookServiceSuite) TestSimultaneousSubscriptionEventsArchiveOnce() {
	stored, err := s.GetStores().PlanRepo.Get(s.GetContext(), s.plan.ID)
	s.Require().NoError(err)
	initialPrice := *stored.ActivePriceID

	eve, err := s.subscriptionService.Join(s.GetContext(), "eve", &dto.JoinPlanRequest{
		JoinCode: s.plan.JoinCode,
		Quantity: 2,
	})
	s.Require().NoError(err)
	eveMembership, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "eve", s.plan.ID)
	s.Require().NoError(err)

	bobEvent := s.subscriptionCreated("evt_race_bob")
	eveEvent := &billing.WebhookEvent{
		ID:             "evt_race_eve",
		Type:           types.WebhookEventTypeSubscriptionCreated,
		SubscriptionID: eve.SubscriptionID,
		CustomerID:     "cus_eve",
		PriceID:        *eveMembership.PriceID,
		ProductID:      s.plan.ID,
		Quantity:       2,
		Username:       "eve",
	}

	// Dispatch both concurrently, bypassing signature parsing: the plan
	// lock must serialize them so each supersession archives exactly one
	// price
	ws := s.webhookService.(*webhookService)
	var wg sync.WaitGroup
	for _, event := range []*billing.WebhookEvent{bobEvent, eveEvent} {
		wg.Add(1)
		go func(event *billing.WebhookEvent) {
			defer wg.Done()
			ws.handleSubscriptionCreated(s.GetContext(), event)
		}(event)
	}
	wg.Wait()

	stored, err = s.GetStores().PlanRepo.Get(s.GetContext(), s.plan.ID)
	s.NoError(err)
	active := *stored.ActivePriceID

	loser := bobEvent.PriceID
	if active == bobEvent.PriceID {
		loser = eveEvent.PriceID
	}
	s.ElementsMatch([]string{initialPrice, loser}, s.GetGateway().Archived)
}

func (s *WebhookServiceSuite) TestPaymentSucceededActivatesMembership() {
	s.handle(&billing.WebhookEvent{
		ID:                    "evt_pay_1",
		Type:                  types.WebhookEventTypeInvoicePaymentOK,
		InvoiceSubscriptionID: s.bob.SubscriptionID,
	})

	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", s.plan.ID)
	s.NoError(err)
	s.Equal(types.MembershipStatusActive, m.Status)
}

func (s *WebhookServiceSuite) TestPaymentSucceededUnknownSubscription() {
	// Unknown subscriptions are logged, not errors: the processor must
	// still get a 2xx
	s.handle(&billing.WebhookEvent{
		ID:                    "evt_pay_2",
		Type:                  types.WebhookEventTypeInvoicePaymentOK,
		InvoiceSubscriptionID: "sub_unknown",
	})
}

func (s *WebhookServiceSuite) TestPaymentFailedLeavesMembershipPending() {
	s.handle(&billing.WebhookEvent{
		ID:                    "evt_pay_3",
		Type:                  types.WebhookEventTypeInvoicePaymentFail,
		InvoiceSubscriptionID: s.bob.SubscriptionID,
	})

	m, err := s.GetStores().MembershipRepo.Get(s.GetContext(), "bob", s.plan.ID)
	s.NoError(err)
	s.Equal(types.MembershipStatusPendingSetup, m.Status)
}

func (s *WebhookServiceSuite) TestUnrecognizedEventTypeIgnored() {
	s.handle(&billing.WebhookEvent{
		ID:   "evt_misc_1",
		Type: types.WebhookEventType("customer.updated"),
	})
	s.Empty(s.GetGateway().ItemUpdates)
}

func (s *WebhookServiceSuite) TestBadSignatureRejected() {
	s.GetGateway().ParseErr = ierr.NewError("bad signature").
		WithHint("Invalid webhook signature").
		Mark(ierr.ErrAuthentication)

	err := s.webhookService.HandleEvent(s.GetContext(), []byte("{}"), "bad")
	s.Error(err)
	s.True(ierr.IsAuthentication(err))
}

// activateMember puts a member on the plan with an active subscription
// billing on priceID, returning the subscription id
func (s *WebhookServiceSuite) activateMember(username string, quantity int64, priceID string) string {
	resp, err := s.subscriptionService.Join(s.GetContext(), username, &dto.JoinPlanRequest{
		JoinCode: s.plan.JoinCode,
		Quantity: quantity,
	})
	s.Require().NoError(err)

	err = s.GetStores().MembershipRepo.UpdateStatusBySubscription(
		s.GetContext(), resp.SubscriptionID, types.MembershipStatusActive)
	s.Require().NoError(err)
	err = s.GetStores().MembershipRepo.UpdatePriceBySubscription(
		s.GetContext(), resp.SubscriptionID, priceID)
	s.Require().NoError(err)
	return resp.SubscriptionID
}
