package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/splitsub/splitsub/internal/config"
	"github.com/splitsub/splitsub/internal/logger"
	"github.com/splitsub/splitsub/internal/postgres"
	"github.com/splitsub/splitsub/internal/types"
)

// Stores holds the repository fakes shared by service test suites
type Stores struct {
	UserRepo         *InMemoryUserStore
	PlanRepo         *InMemoryPlanStore
	MembershipRepo   *InMemoryMembershipStore
	WebhookEventRepo *InMemoryWebhookEventStore
}

// BaseServiceTestSuite provides common functionality for service test
// suites: fresh in-memory stores, a fake gateway and email sender per
// test
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	gateway *FakeBillingGateway
	email   *FakeEmailSender
	db      postgres.IClient
	logger  *logger.Logger
	config  *config.Configuration
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.db = NewMockPostgresClient(s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.UserRepo.Clear()
	s.stores.PlanRepo.Clear()
	s.stores.MembershipRepo.Clear()
	s.stores.WebhookEventRepo.Clear()
}

func (s *BaseServiceTestSuite) setupStores() {
	users := NewInMemoryUserStore()
	memberships := NewInMemoryMembershipStore(users)
	s.stores = Stores{
		UserRepo:         users,
		PlanRepo:         NewInMemoryPlanStore(users, memberships),
		MembershipRepo:   memberships,
		WebhookEventRepo: NewInMemoryWebhookEventStore(),
	}
	s.gateway = NewFakeBillingGateway()
	s.email = NewFakeEmailSender()
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetGateway() *FakeBillingGateway {
	return s.gateway
}

func (s *BaseServiceTestSuite) GetEmailSender() *FakeEmailSender {
	return s.email
}

func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
