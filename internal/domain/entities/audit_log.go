package entities

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions written by the settlement path.
const (
	AuditActionPurchaseCompleted   = "purchase.completed"
	AuditActionAutoPaymentCreated  = "auto_payment.created"
	AuditActionAutoPaymentExecuted = "auto_payment.executed"
	AuditActionAutoPaymentFailed   = "auto_payment.failed"
)

// AuditLog is an append-only operational record. Writes are best-effort and
// never fail the operation being audited.
type AuditLog struct {
	ID        uuid.UUID              `json:"id"`
	AgentID   *uuid.UUID             `json:"agentId,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
