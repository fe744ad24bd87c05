package repositories

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"agentmart.backend/internal/domain/entities"
	"agentmart.backend/internal/infrastructure/models"
	"agentmart.backend/pkg/utils"
)

// AuditLogRepository implements append-only audit writes
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Record appends one audit row
func (r *AuditLogRepository) Record(ctx context.Context, log *entities.AuditLog) error {
	metadata := "{}"
	if log.Metadata != nil {
		raw, err := json.Marshal(log.Metadata)
		if err != nil {
			return err
		}
		metadata = string(raw)
	}

	m := &models.AuditLog{
		ID:       utils.GenerateUUIDv7(),
		AgentID:  log.AgentID,
		Action:   log.Action,
		Metadata: metadata,
	}
	return r.db.WithContext(ctx).Create(m).Error
}
