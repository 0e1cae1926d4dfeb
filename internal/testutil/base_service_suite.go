package testutil

import (
	"context"
	"time"

	"github.com/lexcore/lexcore/internal/config"
	"github.com/lexcore/lexcore/internal/domain/auditlog"
	"github.com/lexcore/lexcore/internal/domain/invoice"
	"github.com/lexcore/lexcore/internal/domain/matter"
	"github.com/lexcore/lexcore/internal/domain/notification"
	"github.com/lexcore/lexcore/internal/domain/payment"
	"github.com/lexcore/lexcore/internal/logger"
	"github.com/lexcore/lexcore/internal/mongodb"
	"github.com/lexcore/lexcore/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	MatterRepo   matter.Repository
	InvoiceRepo  invoice.Repository
	SequenceRepo invoice.SequenceRepository
	PaymentRepo  payment.Repository
	AuditLogRepo auditlog.Repository
	Notifier     notification.Dispatcher
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: a tenant-scoped context, in-memory stores and a mock document
// client that rolls the stores back when a transaction fails.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     *MockDocumentClient
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := &config.Configuration{
		Deployment: config.DeploymentConfig{
			Mode: types.ModeLocal,
		},
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
	}
	s.config = cfg

	var err error
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxTenantID, types.DefaultTenantID)
	s.ctx = context.WithValue(s.ctx, types.CtxUserID, types.DefaultUserID)
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	matterStore := NewInMemoryMatterStore()
	invoiceStore := NewInMemoryInvoiceStore()
	paymentStore := NewInMemoryPaymentStore()
	sequenceStore := NewInMemorySequenceStore()

	s.stores = Stores{
		MatterRepo:   matterStore,
		InvoiceRepo:  invoiceStore,
		SequenceRepo: sequenceStore,
		PaymentRepo:  paymentStore,
		AuditLogRepo: NewInMemoryAuditLogStore(),
		Notifier:     NewInMemoryNotifier(),
	}

	s.db = NewMockDocumentClient(s.logger,
		matterStore.InMemoryStore,
		invoiceStore.InMemoryStore,
		paymentStore.InMemoryStore,
		sequenceStore,
	)
}

// ClearStores resets every in-memory store
func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.MatterRepo.(*InMemoryMatterStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.SequenceRepo.(*InMemorySequenceStore).Clear()
	s.stores.AuditLogRepo.(*InMemoryAuditLogStore).Clear()
	s.stores.Notifier.(*InMemoryNotifier).Clear()
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

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() mongodb.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new unique ID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
