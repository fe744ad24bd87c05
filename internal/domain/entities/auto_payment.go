package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// AutoPayment is a recurring payment instruction owned by an agent.
type AutoPayment struct {
	ID               uuid.UUID       `json:"id"`
	AgentID          uuid.UUID       `json:"agentId"`
	RecipientAddress string          `json:"recipientAddress"`
	AmountUSDC       decimal.Decimal `json:"amountUsdc"`
	IntervalSeconds  int             `json:"intervalSeconds"`
	Description      null.String     `json:"description,omitempty"`
	IsActive         bool            `json:"isActive"`
	LastExecutedAt   null.Time       `json:"lastExecutedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Due reports whether the schedule should be executed at now: active and
// either never executed or its interval has elapsed. A last_executed_at in
// the future (clock skew) is never due.
func (a *AutoPayment) Due(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if !a.LastExecutedAt.Valid {
		return true
	}
	return a.LastExecutedAt.Time.Add(time.Duration(a.IntervalSeconds) * time.Second).Before(now)
}

// DueAutoPayment is a due schedule joined with the owning agent's wallet,
// as selected by the scheduler.
type DueAutoPayment struct {
	AutoPayment
	AgentWalletAddress string `json:"agentWalletAddress"`
}

// CreateAutoPaymentInput represents input for registering a schedule
type CreateAutoPaymentInput struct {
	AgentID          uuid.UUID       `json:"agentId"`
	RecipientAddress string          `json:"recipientAddress"`
	AmountUSDC       decimal.Decimal `json:"amountUsdc"`
	IntervalSeconds  int             `json:"intervalSeconds"`
	Description      null.String     `json:"description,omitempty"`
}
