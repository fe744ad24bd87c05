package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/infrastructure/queue"
	"agentmart.backend/pkg/logger"
	"agentmart.backend/pkg/metrics"
	"agentmart.backend/pkg/netguard"
)

const webhookUserAgent = "AgentMart-Webhook/1.0"

// WebhookDeliveryHandler posts event payloads to subscriber endpoints.
// A rejected destination is terminal; a transport error or non-2xx
// response is retried per policy.
type WebhookDeliveryHandler struct {
	client *http.Client
	guard  netguard.Options
}

func NewWebhookDeliveryHandler(timeout time.Duration, guard netguard.Options) *WebhookDeliveryHandler {
	return &WebhookDeliveryHandler{
		client: &http.Client{
			Timeout: timeout,
			// Redirects could bounce a vetted URL into a private range.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		guard: guard,
	}
}

func (h *WebhookDeliveryHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.WebhookDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return queue.Terminal(fmt.Errorf("unmarshal webhook payload: %w", err))
	}

	// The URL was vetted at subscription time but the record may predate
	// the current policy, so check again before connecting.
	if !netguard.IsAllowedURL(payload.URL, h.guard) {
		metrics.WebhookDeliveriesTotal.WithLabelValues("rejected").Inc()
		logger.Warn(ctx, "Webhook destination rejected", zap.String("url", payload.URL))
		return queue.Terminal(domainerrors.ErrWebhookURLRejected)
	}

	body := map[string]any{
		"event":     payload.Event,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"payload":   payload.Payload,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return queue.Terminal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.URL, bytes.NewReader(raw))
	if err != nil {
		return queue.Terminal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", webhookUserAgent)
	req.Header.Set("X-Webhook-Event", payload.Event)

	resp, err := h.client.Do(req)
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		metrics.JobRetriesTotal.WithLabelValues(queue.TypeWebhookDeliver).Inc()
		return fmt.Errorf("deliver webhook to %s: %w", payload.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.WebhookDeliveriesTotal.WithLabelValues("error").Inc()
		metrics.JobRetriesTotal.WithLabelValues(queue.TypeWebhookDeliver).Inc()
		return fmt.Errorf("deliver webhook to %s: status %d", payload.URL, resp.StatusCode)
	}

	metrics.WebhookDeliveriesTotal.WithLabelValues("delivered").Inc()
	return nil
}
