package usecases

import (
	"context"
	"fmt"

	"agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/queue"
)

// TxVerificationUsecase starts confirmation tracking for submitted
// settlements. Tracking the same hash twice is a no-op on both the record
// and the queue.
type TxVerificationUsecase struct {
	repo     repositories.TxVerificationRepository
	enqueuer queue.Enqueuer
}

func NewTxVerificationUsecase(repo repositories.TxVerificationRepository, enqueuer queue.Enqueuer) *TxVerificationUsecase {
	return &TxVerificationUsecase{repo: repo, enqueuer: enqueuer}
}

// Track records txHash as pending and enqueues its verification job.
func (u *TxVerificationUsecase) Track(ctx context.Context, txHash, experimentID string) error {
	if err := u.repo.InsertPending(ctx, txHash, experimentID); err != nil {
		return fmt.Errorf("insert pending verification for %s: %w", txHash, err)
	}

	task, opts, err := queue.NewTxVerifyTask(&queue.TxVerifyPayload{
		TxHash:       txHash,
		ExperimentID: experimentID,
	})
	if err != nil {
		return err
	}
	return u.enqueuer.Enqueue(ctx, task, opts...)
}
