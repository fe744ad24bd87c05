package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"agentmart.backend/internal/domain/entities"
	"agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/queue"
	"agentmart.backend/pkg/logger"
)

// WebhookUsecase fans events out to subscribers. Publish only enqueues;
// delivery, retries and destination vetting happen in the worker.
type WebhookUsecase struct {
	repo     repositories.WebhookRepository
	enqueuer queue.Enqueuer
}

func NewWebhookUsecase(repo repositories.WebhookRepository, enqueuer queue.Enqueuer) *WebhookUsecase {
	return &WebhookUsecase{repo: repo, enqueuer: enqueuer}
}

// Publish enqueues one delivery task per active subscription for event. A
// failure on one subscription does not stop the rest.
func (u *WebhookUsecase) Publish(ctx context.Context, event entities.WebhookEventType, payload interface{}) error {
	if !entities.ValidWebhookEventType(event) {
		return fmt.Errorf("unknown webhook event type %q", event)
	}

	subs, err := u.repo.FetchActive(ctx, event)
	if err != nil {
		return fmt.Errorf("fetch subscriptions for %s: %w", event, err)
	}
	if len(subs) == 0 {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}

	var failed int
	for _, sub := range subs {
		task, opts, err := queue.NewWebhookDeliverTask(&queue.WebhookDeliverPayload{
			URL:     sub.URL,
			Event:   string(event),
			Payload: raw,
		})
		if err != nil {
			return err
		}
		if err := u.enqueuer.Enqueue(ctx, task, opts...); err != nil {
			failed++
			logger.Error(ctx, "Failed to enqueue webhook delivery",
				zap.String("event", string(event)), zap.String("url", sub.URL), zap.Error(err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("enqueue %s deliveries: %d of %d failed", event, failed, len(subs))
	}
	return nil
}
