package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/payments"
	"agentmart.backend/internal/infrastructure/queue"
	"agentmart.backend/pkg/logger"
	"agentmart.backend/pkg/metrics"
)

// WebhookPublisher fans an event out to active subscribers.
type WebhookPublisher interface {
	Publish(ctx context.Context, event entities.WebhookEventType, payload interface{}) error
}

// AutoPaymentWorker executes one due schedule per task. The schedule is
// re-read before executing so a deactivation between enqueue and pickup
// wins. When the attempt budget runs out the failure is audited and a
// payment.failed event is published before the job is archived.
type AutoPaymentWorker struct {
	repo     repositories.AutoPaymentRepository
	audit    repositories.AuditLogRepository
	executor payments.Executor
	webhooks WebhookPublisher
}

func NewAutoPaymentWorker(
	repo repositories.AutoPaymentRepository,
	audit repositories.AuditLogRepository,
	executor payments.Executor,
	webhooks WebhookPublisher,
) *AutoPaymentWorker {
	return &AutoPaymentWorker{
		repo:     repo,
		audit:    audit,
		executor: executor,
		webhooks: webhooks,
	}
}

func (w *AutoPaymentWorker) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.AutoPaymentExecutePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return queue.Terminal(fmt.Errorf("unmarshal auto-payment payload: %w", err))
	}

	id, err := uuid.Parse(payload.AutoPaymentID)
	if err != nil {
		return queue.Terminal(fmt.Errorf("invalid auto-payment id %q: %w", payload.AutoPaymentID, err))
	}

	schedule, err := w.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "Auto-payment no longer exists, skipping", zap.String("auto_payment_id", payload.AutoPaymentID))
			return nil
		}
		return fmt.Errorf("load auto-payment %s: %w", id, err)
	}
	if !schedule.IsActive {
		logger.Info(ctx, "Auto-payment no longer active, skipping", zap.String("auto_payment_id", payload.AutoPaymentID))
		return nil
	}

	result, execErr := w.executor.Execute(ctx, id, payload.RecipientAddress, payload.AmountUSDC, payload.AgentWallet)
	if execErr != nil {
		metrics.JobRetriesTotal.WithLabelValues(queue.TypeAutoPaymentExecute).Inc()
		if lastAttempt(ctx) {
			w.recordFailure(ctx, schedule, &payload, execErr)
		}
		return fmt.Errorf("execute auto-payment %s: %w", id, execErr)
	}

	if err := w.repo.TouchExecuted(ctx, id, time.Now().UTC()); err != nil {
		// The transfer went out; a retry must not send it again.
		logger.Error(ctx, "Auto-payment executed but last_executed_at not updated",
			zap.String("auto_payment_id", payload.AutoPaymentID), zap.Error(err))
	}

	metrics.AutoPaymentsExecutedTotal.WithLabelValues("executed").Inc()
	w.recordAudit(ctx, schedule.AgentID, entities.AuditActionAutoPaymentExecuted, map[string]interface{}{
		"auto_payment_id": payload.AutoPaymentID,
		"amount_usdc":     payload.AmountUSDC.String(),
		"recipient":       payload.RecipientAddress,
		"tx_hash":         result.TxHash,
	})

	logger.Info(ctx, "Auto-payment executed",
		zap.String("auto_payment_id", payload.AutoPaymentID),
		zap.String("tx_hash", result.TxHash))
	return nil
}

func (w *AutoPaymentWorker) recordFailure(ctx context.Context, schedule *entities.AutoPayment, payload *queue.AutoPaymentExecutePayload, cause error) {
	metrics.AutoPaymentsExecutedTotal.WithLabelValues("failed").Inc()
	w.recordAudit(ctx, schedule.AgentID, entities.AuditActionAutoPaymentFailed, map[string]interface{}{
		"auto_payment_id": payload.AutoPaymentID,
		"amount_usdc":     payload.AmountUSDC.String(),
		"recipient":       payload.RecipientAddress,
		"error":           cause.Error(),
	})

	if err := w.webhooks.Publish(ctx, entities.WebhookEventPaymentFailed, map[string]interface{}{
		"autoPaymentId": payload.AutoPaymentID,
		"agentId":       payload.AgentID,
		"amountUsdc":    payload.AmountUSDC.String(),
		"recipient":     payload.RecipientAddress,
		"reason":        cause.Error(),
	}); err != nil {
		logger.Error(ctx, "Failed to publish payment.failed webhook", zap.Error(err))
	}
}

func (w *AutoPaymentWorker) recordAudit(ctx context.Context, agentID uuid.UUID, action string, metadata map[string]interface{}) {
	if err := w.audit.Record(ctx, &entities.AuditLog{
		AgentID:  &agentID,
		Action:   action,
		Metadata: metadata,
	}); err != nil {
		logger.Error(ctx, "Audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// lastAttempt reports whether the current invocation is the final one the
// task's retry budget allows.
func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	max, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= max
}
