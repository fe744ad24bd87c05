package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Experiment lifecycle event names recorded by the purchase path. The wider
// catalog (visits, tasks, budgets) is written by other surfaces against the
// same table.
const (
	ExperimentEventAttemptPurchase = "attempt_purchase"
	ExperimentEventTxSubmitted     = "tx_submitted"
	ExperimentEventTxConfirmed     = "tx_confirmed"
	ExperimentEventPurchaseSuccess = "purchase_success"
	ExperimentEventPurchaseFailed  = "purchase_failed"
)

// ExperimentContext identifies the experiment session accompanying a
// request. A nil context disables the analytics side-channel entirely.
type ExperimentContext struct {
	ExperimentID string `json:"experimentId"`
	Condition    string `json:"condition"`
	AgentID      string `json:"agentId"`
	SessionID    string `json:"sessionId"`
}

// ExperimentEvent is one append-only analytics row. Recording is
// fire-and-forget; a failed insert must never affect the purchase outcome.
type ExperimentEvent struct {
	ID           uuid.UUID              `json:"id"`
	Timestamp    time.Time              `json:"ts"`
	ExperimentID string                 `json:"experimentId"`
	Condition    string                 `json:"condition"`
	AgentID      string                 `json:"agentId,omitempty"`
	SessionID    string                 `json:"sessionId,omitempty"`
	Event        string                 `json:"event"`
	ProductID    *uuid.UUID             `json:"productId,omitempty"`
	PriceUSDC    *decimal.Decimal       `json:"priceUsdc,omitempty"`
	TxHash       string                 `json:"txHash,omitempty"`
	Status       string                 `json:"status,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ForContext fills the four base identification fields from ctx.
func (e *ExperimentEvent) ForContext(ctx *ExperimentContext) *ExperimentEvent {
	e.ExperimentID = ctx.ExperimentID
	e.Condition = ctx.Condition
	e.AgentID = ctx.AgentID
	e.SessionID = ctx.SessionID
	return e
}
