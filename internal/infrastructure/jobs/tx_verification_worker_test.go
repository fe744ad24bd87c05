package jobs

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agentmart.backend/internal/domain/entities"
	"agentmart.backend/internal/infrastructure/blockchain"
	"agentmart.backend/internal/infrastructure/queue"
)

type mockTxVerificationRepo struct {
	mock.Mock
}

func (m *mockTxVerificationRepo) InsertPending(ctx context.Context, txHash, experimentID string) error {
	return m.Called(ctx, txHash, experimentID).Error(0)
}

func (m *mockTxVerificationRepo) GetByTxHash(ctx context.Context, txHash string) (*entities.TxVerification, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TxVerification), args.Error(1)
}

func (m *mockTxVerificationRepo) MarkConfirmed(ctx context.Context, txHash, gasUsed string, blockNumber int64) error {
	return m.Called(ctx, txHash, gasUsed, blockNumber).Error(0)
}

func (m *mockTxVerificationRepo) MarkReverted(ctx context.Context, txHash, gasUsed string, blockNumber int64, revertReason string) error {
	return m.Called(ctx, txHash, gasUsed, blockNumber, revertReason).Error(0)
}

func (m *mockTxVerificationRepo) IncrementAttempts(ctx context.Context, txHash string) (int, error) {
	args := m.Called(ctx, txHash)
	return args.Int(0), args.Error(1)
}

func (m *mockTxVerificationRepo) GiveUp(ctx context.Context, txHash string) error {
	return m.Called(ctx, txHash).Error(0)
}

type mockExperimentEventRepo struct {
	mock.Mock
}

func (m *mockExperimentEventRepo) Record(ctx context.Context, event *entities.ExperimentEvent) error {
	return m.Called(ctx, event).Error(0)
}

func verifyTask(t *testing.T, txHash, experimentID string) *asynq.Task {
	t.Helper()
	task, _, err := queue.NewTxVerifyTask(&queue.TxVerifyPayload{TxHash: txHash, ExperimentID: experimentID})
	require.NoError(t, err)
	return task
}

func receiptClient(receipt *types.Receipt, err error) *blockchain.EVMClient {
	return blockchain.NewEVMClientWithHooks(big.NewInt(1),
		func(ctx context.Context, txHash string) (*types.Receipt, error) {
			return receipt, err
		}, nil)
}

func TestTxVerificationWorker_Confirmed(t *testing.T) {
	repo := new(mockTxVerificationRepo)
	experiments := new(mockExperimentEventRepo)
	chain := receiptClient(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		GasUsed:     21000,
		BlockNumber: big.NewInt(123),
	}, nil)
	w := NewTxVerificationWorker(chain, repo, experiments)

	repo.On("MarkConfirmed", mock.Anything, "0xhash", "21000", int64(123)).Return(nil)
	experiments.On("Record", mock.Anything, mock.MatchedBy(func(e *entities.ExperimentEvent) bool {
		return e.Event == entities.ExperimentEventTxConfirmed && e.Status == "confirmed" && e.TxHash == "0xhash"
	})).Return(nil)

	require.NoError(t, w.ProcessTask(context.Background(), verifyTask(t, "0xhash", "exp-1")))
	repo.AssertExpectations(t)
	experiments.AssertExpectations(t)
}

func TestTxVerificationWorker_Confirmed_NoExperiment(t *testing.T) {
	repo := new(mockTxVerificationRepo)
	experiments := new(mockExperimentEventRepo)
	chain := receiptClient(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		GasUsed:     21000,
		BlockNumber: big.NewInt(5),
	}, nil)
	w := NewTxVerificationWorker(chain, repo, experiments)

	repo.On("MarkConfirmed", mock.Anything, "0xhash", "21000", int64(5)).Return(nil)

	require.NoError(t, w.ProcessTask(context.Background(), verifyTask(t, "0xhash", "")))
	experiments.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestTxVerificationWorker_Reverted(t *testing.T) {
	repo := new(mockTxVerificationRepo)
	experiments := new(mockExperimentEventRepo)
	chain := receiptClient(&types.Receipt{
		Status:      types.ReceiptStatusFailed,
		GasUsed:     30000,
		BlockNumber: big.NewInt(99),
	}, nil)
	w := NewTxVerificationWorker(chain, repo, experiments)

	repo.On("MarkReverted", mock.Anything, "0xhash", "30000", int64(99), "transaction_reverted").Return(nil)
	experiments.On("Record", mock.Anything, mock.MatchedBy(func(e *entities.ExperimentEvent) bool {
		return e.Status == "failed"
	})).Return(nil)

	require.NoError(t, w.ProcessTask(context.Background(), verifyTask(t, "0xhash", "exp-1")))
	repo.AssertExpectations(t)
}

func TestTxVerificationWorker_NoReceiptRetries(t *testing.T) {
	repo := new(mockTxVerificationRepo)
	chain := receiptClient(nil, ethereum.NotFound)
	w := NewTxVerificationWorker(chain, repo, new(mockExperimentEventRepo))

	repo.On("IncrementAttempts", mock.Anything, "0xhash").Return(3, nil)

	err := w.ProcessTask(context.Background(), verifyTask(t, "0xhash", ""))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	repo.AssertNotCalled(t, "GiveUp", mock.Anything, mock.Anything)
}

func TestTxVerificationWorker_GivesUpAfterBudget(t *testing.T) {
	repo := new(mockTxVerificationRepo)
	chain := receiptClient(nil, ethereum.NotFound)
	w := NewTxVerificationWorker(chain, repo, new(mockExperimentEventRepo))

	repo.On("IncrementAttempts", mock.Anything, "0xhash").Return(entities.TxVerificationMaxAttempts, nil)
	repo.On("GiveUp", mock.Anything, "0xhash").Return(nil)

	// Exhausting the budget completes the job, it does not error.
	require.NoError(t, w.ProcessTask(context.Background(), verifyTask(t, "0xhash", "")))
	repo.AssertExpectations(t)
}

func TestTxVerificationWorker_RPCErrorRetries(t *testing.T) {
	repo := new(mockTxVerificationRepo)
	chain := receiptClient(nil, errors.New("connection refused"))
	w := NewTxVerificationWorker(chain, repo, new(mockExperimentEventRepo))

	err := w.ProcessTask(context.Background(), verifyTask(t, "0xhash", ""))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	repo.AssertNotCalled(t, "IncrementAttempts", mock.Anything, mock.Anything)
}
