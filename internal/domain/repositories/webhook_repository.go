package repositories

import (
	"context"

	"agentmart.backend/internal/domain/entities"
)

// WebhookRepository reads webhook subscriptions. Registration CRUD lives
// outside the settlement core.
type WebhookRepository interface {
	// FetchActive returns the active subscriptions for one event type.
	FetchActive(ctx context.Context, eventType entities.WebhookEventType) ([]*entities.WebhookSubscription, error)
}
