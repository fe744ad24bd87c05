package repositories

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"agentmart.backend/internal/domain/entities"
	"agentmart.backend/internal/infrastructure/models"
	"agentmart.backend/pkg/utils"
)

// ExperimentEventRepository implements append-only analytics writes
type ExperimentEventRepository struct {
	db *gorm.DB
}

// NewExperimentEventRepository creates a new experiment event repository
func NewExperimentEventRepository(db *gorm.DB) *ExperimentEventRepository {
	return &ExperimentEventRepository{db: db}
}

// Record appends one analytics row
func (r *ExperimentEventRepository) Record(ctx context.Context, event *entities.ExperimentEvent) error {
	metadata := "{}"
	if event.Metadata != nil {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
		metadata = string(raw)
	}

	condition := event.Condition
	if condition == "" {
		condition = "A"
	}

	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	m := &models.ExperimentEvent{
		ID:           utils.GenerateUUIDv7(),
		Ts:           ts,
		ExperimentID: event.ExperimentID,
		Condition:    condition,
		Event:        event.Event,
		ProductID:    event.ProductID,
		PriceUSDC:    event.PriceUSDC,
		Metadata:     metadata,
	}
	if event.AgentID != "" {
		m.AgentID = &event.AgentID
	}
	if event.SessionID != "" {
		m.SessionID = &event.SessionID
	}
	if event.TxHash != "" {
		m.TxHash = &event.TxHash
	}
	if event.Status != "" {
		m.Status = &event.Status
	}
	if event.Reason != "" {
		m.Reason = &event.Reason
	}

	return r.db.WithContext(ctx).Create(m).Error
}
