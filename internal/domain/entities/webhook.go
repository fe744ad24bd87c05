package entities

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEventType is the closed set of events subscribers can register for.
type WebhookEventType string

const (
	WebhookEventListingCreated    WebhookEventType = "listing.created"
	WebhookEventPurchaseCompleted WebhookEventType = "purchase.completed"
	WebhookEventPaymentFailed     WebhookEventType = "payment.failed"
	WebhookEventSyncFailed        WebhookEventType = "sync.failed"
)

// ValidWebhookEventType reports whether t is in the closed event set.
func ValidWebhookEventType(t WebhookEventType) bool {
	switch t {
	case WebhookEventListingCreated, WebhookEventPurchaseCompleted,
		WebhookEventPaymentFailed, WebhookEventSyncFailed:
		return true
	}
	return false
}

// WebhookSubscription is a third party's interest in one event type. Only
// active subscriptions matching an emitted event receive delivery jobs.
type WebhookSubscription struct {
	ID        uuid.UUID        `json:"id"`
	EventType WebhookEventType `json:"eventType"`
	URL       string           `json:"url"`
	IsActive  bool             `json:"isActive"`
	CreatedAt time.Time        `json:"createdAt"`
}
