package repositories

import (
	"context"

	"agentmart.backend/internal/domain/entities"
)

// TxVerificationRepository persists settlement confirmation records.
type TxVerificationRepository interface {
	// InsertPending inserts a pending record for txHash. A duplicate hash
	// is ignored, not an error.
	InsertPending(ctx context.Context, txHash, experimentID string) error

	GetByTxHash(ctx context.Context, txHash string) (*entities.TxVerification, error)

	// MarkConfirmed finalizes the record from a receipt with a success code.
	MarkConfirmed(ctx context.Context, txHash, gasUsed string, blockNumber int64) error

	// MarkReverted finalizes the record from a receipt with a failure code.
	MarkReverted(ctx context.Context, txHash, gasUsed string, blockNumber int64, revertReason string) error

	// IncrementAttempts bumps the attempt counter for a poll that found no
	// receipt and returns the new count.
	IncrementAttempts(ctx context.Context, txHash string) (int, error)

	// GiveUp marks the record failed after the attempt budget is exhausted.
	GiveUp(ctx context.Context, txHash string) error
}

// AuditLogRepository appends operational audit records.
type AuditLogRepository interface {
	Record(ctx context.Context, log *entities.AuditLog) error
}

// ExperimentEventRepository appends analytics events.
type ExperimentEventRepository interface {
	Record(ctx context.Context, event *entities.ExperimentEvent) error
}
