package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/infrastructure/models"
	"agentmart.backend/pkg/utils"
)

// AutoPaymentRepository implements auto-payment schedule persistence
type AutoPaymentRepository struct {
	db *gorm.DB
}

// NewAutoPaymentRepository creates a new auto-payment repository
func NewAutoPaymentRepository(db *gorm.DB) *AutoPaymentRepository {
	return &AutoPaymentRepository{db: db}
}

// Create inserts a new schedule
func (r *AutoPaymentRepository) Create(ctx context.Context, input *entities.CreateAutoPaymentInput) (*entities.AutoPayment, error) {
	m := &models.AutoPayment{
		ID:               utils.GenerateUUIDv7(),
		AgentID:          input.AgentID,
		RecipientAddress: input.RecipientAddress,
		AmountUSDC:       input.AmountUSDC,
		IntervalSeconds:  input.IntervalSeconds,
		Description:      input.Description.Ptr(),
		IsActive:         true,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return toAutoPaymentEntity(m), nil
}

// GetByID returns one schedule
func (r *AutoPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.AutoPayment, error) {
	var m models.AutoPayment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toAutoPaymentEntity(&m), nil
}

// FindDue selects active schedules whose interval has elapsed, joined with
// the owning agent's wallet. The comparison is done in SQL so a schedule
// with last_executed_at in the future is never selected.
func (r *AutoPaymentRepository) FindDue(ctx context.Context, now time.Time) ([]*entities.DueAutoPayment, error) {
	type dueRow struct {
		models.AutoPayment
		AgentWalletAddress string
	}

	var rows []dueRow
	err := r.db.WithContext(ctx).Model(&models.AutoPayment{}).
		Select("auto_payments.*, agents.wallet_address AS agent_wallet_address").
		Joins("JOIN agents ON agents.id = auto_payments.agent_id").
		Where("auto_payments.is_active = ?", true).
		Where("auto_payments.last_executed_at IS NULL OR auto_payments.last_executed_at < ?", now).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// The SQL filter is coarse (interval arithmetic is dialect-specific);
	// the per-row interval check happens here.
	due := make([]*entities.DueAutoPayment, 0, len(rows))
	for i := range rows {
		ap := toAutoPaymentEntity(&rows[i].AutoPayment)
		if !ap.Due(now) {
			continue
		}
		due = append(due, &entities.DueAutoPayment{
			AutoPayment:        *ap,
			AgentWalletAddress: rows[i].AgentWalletAddress,
		})
	}
	return due, nil
}

// TouchExecuted updates last_executed_at after an execution attempt
func (r *AutoPaymentRepository) TouchExecuted(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.AutoPayment{}).
		Where("id = ?", id).
		Update("last_executed_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toAutoPaymentEntity(m *models.AutoPayment) *entities.AutoPayment {
	return &entities.AutoPayment{
		ID:               m.ID,
		AgentID:          m.AgentID,
		RecipientAddress: m.RecipientAddress,
		AmountUSDC:       m.AmountUSDC,
		IntervalSeconds:  m.IntervalSeconds,
		Description:      null.StringFromPtr(m.Description),
		IsActive:         m.IsActive,
		LastExecutedAt:   null.TimeFromPtr(m.LastExecutedAt),
		CreatedAt:        m.CreatedAt,
	}
}
