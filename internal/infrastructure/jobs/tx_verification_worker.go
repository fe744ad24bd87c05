package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/domain/entities"
	"agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/blockchain"
	"agentmart.backend/internal/infrastructure/queue"
	"agentmart.backend/pkg/logger"
	"agentmart.backend/pkg/metrics"
)

// TxVerificationWorker polls the chain for a settlement receipt. A missing
// receipt counts one attempt and retries; once the attempt budget is spent
// the record is marked failed and the job completes. A present receipt
// finalizes the record either way, confirmed or reverted.
type TxVerificationWorker struct {
	chain       *blockchain.EVMClient
	repo        repositories.TxVerificationRepository
	experiments repositories.ExperimentEventRepository
}

func NewTxVerificationWorker(
	chain *blockchain.EVMClient,
	repo repositories.TxVerificationRepository,
	experiments repositories.ExperimentEventRepository,
) *TxVerificationWorker {
	return &TxVerificationWorker{
		chain:       chain,
		repo:        repo,
		experiments: experiments,
	}
}

func (w *TxVerificationWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.TxVerifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return queue.Terminal(fmt.Errorf("unmarshal tx-verify payload: %w", err))
	}

	receipt, err := w.chain.TransactionReceipt(ctx, payload.TxHash)
	if err != nil {
		if blockchain.IsNotFound(err) {
			return w.handleMissing(ctx, payload.TxHash)
		}
		metrics.JobRetriesTotal.WithLabelValues(queue.TypeTxVerify).Inc()
		return fmt.Errorf("fetch receipt for %s: %w", payload.TxHash, err)
	}

	gasUsed := fmt.Sprintf("%d", receipt.GasUsed)
	blockNumber := receipt.BlockNumber.Int64()

	if receipt.Status == 1 {
		if err := w.repo.MarkConfirmed(ctx, payload.TxHash, gasUsed, blockNumber); err != nil {
			return fmt.Errorf("mark %s confirmed: %w", payload.TxHash, err)
		}
		metrics.TxVerificationsTotal.WithLabelValues("confirmed").Inc()
		w.recordOutcome(ctx, &payload, string(entities.TxVerificationConfirmed), gasUsed, blockNumber)
		logger.Info(ctx, "Transaction confirmed",
			zap.String("tx_hash", payload.TxHash), zap.Int64("block", blockNumber))
		return nil
	}

	if err := w.repo.MarkReverted(ctx, payload.TxHash, gasUsed, blockNumber, "transaction_reverted"); err != nil {
		return fmt.Errorf("mark %s reverted: %w", payload.TxHash, err)
	}
	metrics.TxVerificationsTotal.WithLabelValues("reverted").Inc()
	w.recordOutcome(ctx, &payload, string(entities.TxVerificationFailed), gasUsed, blockNumber)
	logger.Warn(ctx, "Transaction reverted on chain",
		zap.String("tx_hash", payload.TxHash), zap.Int64("block", blockNumber))
	return nil
}

func (w *TxVerificationWorker) handleMissing(ctx context.Context, txHash string) error {
	attempts, err := w.repo.IncrementAttempts(ctx, txHash)
	if err != nil {
		return fmt.Errorf("count attempt for %s: %w", txHash, err)
	}

	if attempts >= entities.TxVerificationMaxAttempts {
		if err := w.repo.GiveUp(ctx, txHash); err != nil {
			return fmt.Errorf("give up on %s: %w", txHash, err)
		}
		metrics.TxVerificationsTotal.WithLabelValues("gave_up").Inc()
		logger.Warn(ctx, "Transaction never confirmed, giving up",
			zap.String("tx_hash", txHash), zap.Int("attempts", attempts))
		return nil
	}

	metrics.JobRetriesTotal.WithLabelValues(queue.TypeTxVerify).Inc()
	return fmt.Errorf("%w: %s (attempt %d)", domainerrors.ErrReceiptNotAvailable, txHash, attempts)
}

func (w *TxVerificationWorker) recordOutcome(ctx context.Context, payload *queue.TxVerifyPayload, status, gasUsed string, blockNumber int64) {
	if payload.ExperimentID == "" {
		return
	}
	if err := w.experiments.Record(ctx, &entities.ExperimentEvent{
		Timestamp:    time.Now().UTC(),
		ExperimentID: payload.ExperimentID,
		Event:        entities.ExperimentEventTxConfirmed,
		TxHash:       payload.TxHash,
		Status:       status,
		Metadata: map[string]interface{}{
			"gas_used":     gasUsed,
			"block_number": blockNumber,
		},
	}); err != nil {
		logger.Error(ctx, "Failed to record tx_confirmed event", zap.Error(err))
	}
}
