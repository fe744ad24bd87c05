package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/infrastructure/models"
	"agentmart.backend/pkg/utils"
)

// TxVerificationRepository implements settlement confirmation persistence
type TxVerificationRepository struct {
	db *gorm.DB
}

// NewTxVerificationRepository creates a new tx verification repository
func NewTxVerificationRepository(db *gorm.DB) *TxVerificationRepository {
	return &TxVerificationRepository{db: db}
}

// InsertPending inserts a pending record, ignoring a duplicate tx hash
func (r *TxVerificationRepository) InsertPending(ctx context.Context, txHash, experimentID string) error {
	m := &models.TxVerification{
		ID:     utils.GenerateUUIDv7(),
		TxHash: txHash,
		Status: string(entities.TxVerificationPending),
	}
	if experimentID != "" {
		m.ExperimentID = &experimentID
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}},
			DoNothing: true,
		}).
		Create(m).Error
}

// GetByTxHash returns the record for one settlement reference
func (r *TxVerificationRepository) GetByTxHash(ctx context.Context, txHash string) (*entities.TxVerification, error) {
	var m models.TxVerification
	if err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toTxVerificationEntity(&m), nil
}

// MarkConfirmed finalizes a pending record from a successful receipt
func (r *TxVerificationRepository) MarkConfirmed(ctx context.Context, txHash, gasUsed string, blockNumber int64) error {
	return r.finalize(ctx, txHash, map[string]interface{}{
		"status":       entities.TxVerificationConfirmed,
		"gas_used":     gasUsed,
		"block_number": blockNumber,
		"updated_at":   time.Now(),
	})
}

// MarkReverted finalizes a pending record from a failed receipt
func (r *TxVerificationRepository) MarkReverted(ctx context.Context, txHash, gasUsed string, blockNumber int64, revertReason string) error {
	return r.finalize(ctx, txHash, map[string]interface{}{
		"status":        entities.TxVerificationFailed,
		"gas_used":      gasUsed,
		"block_number":  blockNumber,
		"revert_reason": revertReason,
		"updated_at":    time.Now(),
	})
}

// GiveUp marks a pending record failed after the attempt budget is spent
func (r *TxVerificationRepository) GiveUp(ctx context.Context, txHash string) error {
	return r.finalize(ctx, txHash, map[string]interface{}{
		"status":     entities.TxVerificationFailed,
		"updated_at": time.Now(),
	})
}

// finalize writes terminal state. The status guard keeps terminal records
// terminal even if a stale job fires twice.
func (r *TxVerificationRepository) finalize(ctx context.Context, txHash string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.TxVerification{}).
		Where("tx_hash = ? AND status = ?", txHash, entities.TxVerificationPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// IncrementAttempts bumps the attempt counter and returns the new count
func (r *TxVerificationRepository) IncrementAttempts(ctx context.Context, txHash string) (int, error) {
	result := r.db.WithContext(ctx).Model(&models.TxVerification{}).
		Where("tx_hash = ?", txHash).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domainerrors.ErrNotFound
	}

	var m models.TxVerification
	if err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&m).Error; err != nil {
		return 0, err
	}
	return m.Attempts, nil
}

func toTxVerificationEntity(m *models.TxVerification) *entities.TxVerification {
	e := &entities.TxVerification{
		ID:           m.ID,
		TxHash:       m.TxHash,
		ExperimentID: null.StringFromPtr(m.ExperimentID),
		Status:       entities.TxVerificationStatus(m.Status),
		GasUsed:      null.StringFromPtr(m.GasUsed),
		RevertReason: null.StringFromPtr(m.RevertReason),
		Attempts:     m.Attempts,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.BlockNumber != nil {
		e.BlockNumber = null.Int64From(*m.BlockNumber)
	}
	return e
}
