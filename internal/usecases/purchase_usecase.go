package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/payments"
	"agentmart.backend/pkg/logger"
	"agentmart.backend/pkg/metrics"
)

// webhookPublisher and txTracker are the outbound side-channel surfaces the
// purchase path needs. Satisfied by WebhookUsecase and TxVerificationUsecase.
type webhookPublisher interface {
	Publish(ctx context.Context, event entities.WebhookEventType, payload interface{}) error
}

type txTracker interface {
	Track(ctx context.Context, txHash, experimentID string) error
}

// PurchaseUsecase implements the idempotent purchase flow: prepare a
// pending row inside one transaction, pay across the executor boundary,
// then finalize. Everything after finalization is best-effort and can
// never change the purchase outcome.
type PurchaseUsecase struct {
	purchases        repositories.PurchaseRepository
	audit            repositories.AuditLogRepository
	experiments      repositories.ExperimentEventRepository
	executor         payments.Executor
	webhooks         webhookPublisher
	tracker          txTracker
	paymentsDisabled bool
}

func NewPurchaseUsecase(
	purchases repositories.PurchaseRepository,
	audit repositories.AuditLogRepository,
	experiments repositories.ExperimentEventRepository,
	executor payments.Executor,
	webhooks webhookPublisher,
	tracker txTracker,
	paymentsDisabled bool,
) *PurchaseUsecase {
	return &PurchaseUsecase{
		purchases:        purchases,
		audit:            audit,
		experiments:      experiments,
		executor:         executor,
		webhooks:         webhooks,
		tracker:          tracker,
		paymentsDisabled: paymentsDisabled,
	}
}

// CreatePurchase runs the settlement flow for one buy request. A replay of
// a known idempotency key returns the stored purchase without touching the
// executor. expCtx may be nil; analytics are then skipped entirely.
func (u *PurchaseUsecase) CreatePurchase(ctx context.Context, input *entities.CreatePurchaseInput, expCtx *entities.ExperimentContext) (*entities.PurchaseResult, error) {
	if u.paymentsDisabled {
		return nil, domainerrors.PaymentsDisabled()
	}

	u.recordEvent(ctx, expCtx, &entities.ExperimentEvent{
		Event:     entities.ExperimentEventAttemptPurchase,
		ProductID: &input.ListingID,
	})

	prep, err := u.purchases.PreparePurchase(ctx, input)
	if err != nil {
		logger.Error(ctx, "Purchase prepare failed", zap.Error(err))
		return nil, domainerrors.InternalError("purchase_create_failed", err)
	}

	switch prep.Outcome {
	case repositories.PrepareExisting:
		metrics.PurchasesTotal.WithLabelValues("replayed").Inc()
		return &entities.PurchaseResult{Purchase: prep.Purchase, Replayed: true}, nil
	case repositories.PrepareListingNotFound:
		return nil, domainerrors.NotFound("listing_not_found", "Active listing not found.", "Check the listing ID or refresh the catalog.")
	case repositories.PrepareAgentNotFound:
		return nil, domainerrors.NotFound("agent_not_found", "Seller agent not found.", "The listing references a missing agent.")
	}

	purchase := prep.Purchase

	result, execErr := u.executor.Execute(ctx, purchase.ID, prep.SellerAgent.WalletAddress, purchase.AmountUSDC, input.BuyerWallet)
	if execErr != nil {
		u.failPurchase(ctx, purchase, expCtx, execErr)
		return nil, domainerrors.PaymentFailed(execErr)
	}

	u.recordEvent(ctx, expCtx, &entities.ExperimentEvent{
		Event:     entities.ExperimentEventTxSubmitted,
		ProductID: &purchase.ListingID,
		PriceUSDC: &purchase.AmountUSDC,
		TxHash:    result.TxHash,
	})

	completed, err := u.purchases.Complete(ctx, purchase.ID, result.TxHash, result.BuyerWallet)
	if err != nil {
		// Funds moved but the row is still pending. Surfaced as its own
		// error code so the caller does not retry the transfer.
		logger.Error(ctx, "Purchase paid but not finalized",
			zap.String("purchase_id", purchase.ID.String()),
			zap.String("tx_hash", result.TxHash),
			zap.Error(err))
		metrics.PurchasesTotal.WithLabelValues("finalize_failed").Inc()
		return nil, domainerrors.PurchaseFinalizeFailed(err)
	}

	u.afterCompleted(ctx, completed, expCtx)

	metrics.PurchasesTotal.WithLabelValues("completed").Inc()
	return &entities.PurchaseResult{Purchase: completed}, nil
}

// ListPurchases returns purchases matching the filters plus the total count.
func (u *PurchaseUsecase) ListPurchases(ctx context.Context, filters *entities.PurchaseListFilters) ([]*entities.Purchase, int64, error) {
	items, total, err := u.purchases.List(ctx, filters)
	if err != nil {
		return nil, 0, domainerrors.InternalError("purchase_list_failed", err)
	}
	return items, total, nil
}

// failPurchase records the failed outcome. Every step is best-effort: a
// broken side channel must not mask the payment error the caller gets.
func (u *PurchaseUsecase) failPurchase(ctx context.Context, purchase *entities.Purchase, expCtx *entities.ExperimentContext, cause error) {
	metrics.PurchasesTotal.WithLabelValues("failed").Inc()

	if err := u.purchases.MarkFailed(ctx, purchase.ID); err != nil {
		logger.Error(ctx, "Failed to mark purchase failed",
			zap.String("purchase_id", purchase.ID.String()), zap.Error(err))
	}

	u.recordEvent(ctx, expCtx, &entities.ExperimentEvent{
		Event:     entities.ExperimentEventPurchaseFailed,
		ProductID: &purchase.ListingID,
		PriceUSDC: &purchase.AmountUSDC,
		Status:    string(entities.PurchaseStatusFailed),
		Reason:    cause.Error(),
	})

	u.sideEffect(ctx, "payment.failed webhook", func() error {
		return u.webhooks.Publish(ctx, entities.WebhookEventPaymentFailed, map[string]interface{}{
			"purchaseId":  purchase.ID.String(),
			"listingId":   purchase.ListingID.String(),
			"buyerWallet": purchase.BuyerWallet,
			"amountUsdc":  purchase.AmountUSDC.String(),
			"reason":      cause.Error(),
		})
	})
}

// afterCompleted runs the post-finalization side effects, all best-effort.
func (u *PurchaseUsecase) afterCompleted(ctx context.Context, purchase *entities.Purchase, expCtx *entities.ExperimentContext) {
	txHash := purchase.TxHash.String

	u.sideEffect(ctx, "purchase audit", func() error {
		return u.audit.Record(ctx, &entities.AuditLog{
			AgentID: &purchase.SellerAgentID,
			Action:  entities.AuditActionPurchaseCompleted,
			Metadata: map[string]interface{}{
				"purchase_id": purchase.ID.String(),
				"listing_id":  purchase.ListingID.String(),
				"amount_usdc": purchase.AmountUSDC.String(),
				"tx_hash":     txHash,
			},
		})
	})

	u.recordEvent(ctx, expCtx, &entities.ExperimentEvent{
		Event:     entities.ExperimentEventPurchaseSuccess,
		ProductID: &purchase.ListingID,
		PriceUSDC: &purchase.AmountUSDC,
		TxHash:    txHash,
		Status:    string(entities.PurchaseStatusCompleted),
	})

	u.sideEffect(ctx, "purchase.completed webhook", func() error {
		return u.webhooks.Publish(ctx, entities.WebhookEventPurchaseCompleted, map[string]interface{}{
			"purchaseId":    purchase.ID.String(),
			"listingId":     purchase.ListingID.String(),
			"buyerWallet":   purchase.BuyerWallet,
			"sellerAgentId": purchase.SellerAgentID.String(),
			"amountUsdc":    purchase.AmountUSDC.String(),
			"txHash":        txHash,
		})
	})

	if txHash != "" {
		experimentID := ""
		if expCtx != nil {
			experimentID = expCtx.ExperimentID
		}
		u.sideEffect(ctx, "tx verification tracking", func() error {
			return u.tracker.Track(ctx, txHash, experimentID)
		})
	}
}

func (u *PurchaseUsecase) sideEffect(ctx context.Context, name string, fn func() error) {
	if err := fn(); err != nil {
		logger.Error(ctx, "Best-effort side effect failed", zap.String("effect", name), zap.Error(err))
	}
}

// recordEvent appends one analytics row when an experiment context is
// present. Failures are logged and swallowed.
func (u *PurchaseUsecase) recordEvent(ctx context.Context, expCtx *entities.ExperimentContext, event *entities.ExperimentEvent) {
	if expCtx == nil || expCtx.ExperimentID == "" {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := u.experiments.Record(ctx, event.ForContext(expCtx)); err != nil {
		logger.Error(ctx, "Failed to record experiment event",
			zap.String("event", event.Event), zap.Error(err))
	}
}
