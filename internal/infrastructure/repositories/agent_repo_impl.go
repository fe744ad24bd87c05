package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agentmart.backend/internal/infrastructure/models"
)

// AgentRepository implements agent reads
type AgentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

// Exists reports whether an agent row exists
func (r *AgentRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
