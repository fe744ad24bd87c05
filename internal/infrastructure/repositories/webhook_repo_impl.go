package repositories

import (
	"context"

	"gorm.io/gorm"

	"agentmart.backend/internal/domain/entities"
	"agentmart.backend/internal/infrastructure/models"
)

// WebhookRepository implements webhook subscription reads
type WebhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// FetchActive returns the active subscriptions for one event type
func (r *WebhookRepository) FetchActive(ctx context.Context, eventType entities.WebhookEventType) ([]*entities.WebhookSubscription, error) {
	var ms []models.Webhook
	if err := r.db.WithContext(ctx).
		Where("event_type = ? AND is_active = ?", eventType, true).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	subs := make([]*entities.WebhookSubscription, 0, len(ms))
	for i := range ms {
		subs = append(subs, &entities.WebhookSubscription{
			ID:        ms[i].ID,
			EventType: entities.WebhookEventType(ms[i].EventType),
			URL:       ms[i].URL,
			IsActive:  ms[i].IsActive,
			CreatedAt: ms[i].CreatedAt,
		})
	}
	return subs, nil
}
