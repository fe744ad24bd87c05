package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"agentmart.backend/internal/domain/entities"
	domainRepos "agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/payments"
)

type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) PreparePurchase(ctx context.Context, input *entities.CreatePurchaseInput) (*domainRepos.PreparePurchaseResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainRepos.PreparePurchaseResult), args.Error(1)
}

func (m *MockPurchaseRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPurchaseRepository) Complete(ctx context.Context, id uuid.UUID, txHash, buyerWallet string) (*entities.Purchase, error) {
	args := m.Called(ctx, id, txHash, buyerWallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) List(ctx context.Context, filters *entities.PurchaseListFilters) ([]*entities.Purchase, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Purchase), args.Get(1).(int64), args.Error(2)
}

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Record(ctx context.Context, log *entities.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

type MockExperimentEventRepository struct {
	mock.Mock
}

func (m *MockExperimentEventRepository) Record(ctx context.Context, event *entities.ExperimentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, purchaseID uuid.UUID, sellerWallet string, amountUSDC decimal.Decimal, buyerWallet string) (*payments.ExecutionResult, error) {
	args := m.Called(ctx, purchaseID, sellerWallet, amountUSDC, buyerWallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.ExecutionResult), args.Error(1)
}

type MockWebhookPublisher struct {
	mock.Mock
}

func (m *MockWebhookPublisher) Publish(ctx context.Context, event entities.WebhookEventType, payload interface{}) error {
	args := m.Called(ctx, event, payload)
	return args.Error(0)
}

type MockTxTracker struct {
	mock.Mock
}

func (m *MockTxTracker) Track(ctx context.Context, txHash, experimentID string) error {
	args := m.Called(ctx, txHash, experimentID)
	return args.Error(0)
}

type MockAutoPaymentRepository struct {
	mock.Mock
}

func (m *MockAutoPaymentRepository) Create(ctx context.Context, input *entities.CreateAutoPaymentInput) (*entities.AutoPayment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AutoPayment), args.Error(1)
}

func (m *MockAutoPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.AutoPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AutoPayment), args.Error(1)
}

func (m *MockAutoPaymentRepository) FindDue(ctx context.Context, now time.Time) ([]*entities.DueAutoPayment, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.DueAutoPayment), args.Error(1)
}

func (m *MockAutoPaymentRepository) TouchExecuted(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) FetchActive(ctx context.Context, eventType entities.WebhookEventType) ([]*entities.WebhookSubscription, error) {
	args := m.Called(ctx, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.WebhookSubscription), args.Error(1)
}

type MockTxVerificationRepository struct {
	mock.Mock
}

func (m *MockTxVerificationRepository) InsertPending(ctx context.Context, txHash, experimentID string) error {
	args := m.Called(ctx, txHash, experimentID)
	return args.Error(0)
}

func (m *MockTxVerificationRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.TxVerification, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TxVerification), args.Error(1)
}

func (m *MockTxVerificationRepository) MarkConfirmed(ctx context.Context, txHash, gasUsed string, blockNumber int64) error {
	args := m.Called(ctx, txHash, gasUsed, blockNumber)
	return args.Error(0)
}

func (m *MockTxVerificationRepository) MarkReverted(ctx context.Context, txHash, gasUsed string, blockNumber int64, revertReason string) error {
	args := m.Called(ctx, txHash, gasUsed, blockNumber, revertReason)
	return args.Error(0)
}

func (m *MockTxVerificationRepository) IncrementAttempts(ctx context.Context, txHash string) (int, error) {
	args := m.Called(ctx, txHash)
	return args.Int(0), args.Error(1)
}

func (m *MockTxVerificationRepository) GiveUp(ctx context.Context, txHash string) error {
	args := m.Called(ctx, txHash)
	return args.Error(0)
}

// captureEnqueuer records enqueued tasks instead of talking to Redis.
type captureEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (c *captureEnqueuer) Enqueue(_ context.Context, task *asynq.Task, opts ...asynq.Option) error {
	if c.err != nil {
		return c.err
	}
	c.tasks = append(c.tasks, task)
	c.opts = append(c.opts, opts)
	return nil
}
