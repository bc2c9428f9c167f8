package testutil

import (
	"context"
	"time"

	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/config"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/domain/client"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/metrics"
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the in-memory repositories for testing
type Stores struct {
	ClientRepo              *InMemoryClientStore
	SubscriptionRepo        *InMemorySubscriptionStore
	SubscriptionPaymentRepo *InMemorySubscriptionPaymentStore
	FinanceRecordRepo       *InMemoryFinanceRecordStore
	SubscriptionHistoryRepo *InMemorySubscriptionHistoryStore
	WebhookEventRepo        *InMemoryWebhookEventStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	gateway   *MockGatewayClient
	publisher *InMemoryBillingPublisher
	db        *MockPostgresClient
	logger    *logger.Logger
	config    *config.Configuration
	metrics   *metrics.BillingMetrics
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNoopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		ClientRepo:              NewInMemoryClientStore(),
		SubscriptionRepo:        NewInMemorySubscriptionStore(),
		SubscriptionPaymentRepo: NewInMemorySubscriptionPaymentStore(),
		FinanceRecordRepo:       NewInMemoryFinanceRecordStore(),
		SubscriptionHistoryRepo: NewInMemorySubscriptionHistoryStore(),
		WebhookEventRepo:        NewInMemoryWebhookEventStore(),
	}

	// the webhook log is written outside the reconciliation transaction, so
	// it is not rolled back with the rest
	s.db = NewMockPostgresClient(s.logger,
		s.stores.ClientRepo,
		s.stores.SubscriptionRepo,
		s.stores.SubscriptionPaymentRepo,
		s.stores.FinanceRecordRepo,
		s.stores.SubscriptionHistoryRepo,
	)
	s.gateway = NewMockGatewayClient()
	s.publisher = NewInMemoryBillingPublisher()
	// a private registry per test keeps counters independent
	s.metrics = metrics.NewNoopMetrics()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.ClientRepo.Clear()
	s.stores.SubscriptionRepo.Clear()
	s.stores.SubscriptionPaymentRepo.Clear()
	s.stores.FinanceRecordRepo.Clear()
	s.stores.SubscriptionHistoryRepo.Clear()
	s.stores.WebhookEventRepo.Clear()
	s.publisher.Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// SeedClient stores a client owned by DefaultUserID
func (s *BaseServiceTestSuite) SeedClient(id string) *client.Client {
	c := &client.Client{
		ID:        id,
		OwnerID:   DefaultUserID,
		Name:      "Transportes " + id,
		Email:     id + "@example.com",
		Document:  "12345678000190",
		Phone:     "11999990000",
		BaseModel: types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.stores.ClientRepo.Seed(s.ctx, c))
	return c
}

// SeedClientWithCustomer stores a client that already has a gateway customer
func (s *BaseServiceTestSuite) SeedClientWithCustomer(id string) *client.Client {
	c := s.SeedClient(id)
	cus, err := s.gateway.CreateCustomer(s.ctx, gatewayCustomerRequest(c))
	s.Require().NoError(err)
	s.Require().NoError(s.stores.ClientRepo.SetExternalCustomerID(s.ctx, c.ID, cus.ID))
	c.ExternalCustomerID = lo.ToPtr(cus.ID)
	s.gateway.ResetCalls()
	return c
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the fake payment gateway
func (s *BaseServiceTestSuite) GetGateway() *MockGatewayClient {
	return s.gateway
}

// GetPublisher returns the recording billing event publisher
func (s *BaseServiceTestSuite) GetPublisher() *InMemoryBillingPublisher {
	return s.publisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetMetrics() *metrics.BillingMetrics {
	return s.metrics
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
