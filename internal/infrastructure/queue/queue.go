// Package queue defines the durable job surface: task types, payloads and
// retry policies. Delivery is at-least-once; handlers must tolerate
// duplicates. Retry is data (RetryPolicy), not control flow: a handler
// returns a plain error to be retried per policy, or wraps it in Terminal
// to abandon the job immediately.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Task types
const (
	TypeWebhookDeliver     = "webhook:deliver"
	TypeAutoPaymentExecute = "auto_payment:execute"
	TypeTxVerify           = "tx:verify"
)

// Queue names. Each queue runs in its own worker with its own concurrency.
const (
	QueueWebhooks     = "webhooks"
	QueueAutoPayments = "auto-payments"
	QueueTxVerify     = "tx-verifications"
)

// RetryPolicy describes a task type's attempt budget and backoff curve.
type RetryPolicy struct {
	// MaxAttempts is the total number of handler invocations, first try
	// included.
	MaxAttempts int
	// Backoff is the base delay; attempt n waits Backoff * 2^n.
	Backoff time.Duration
}

// Delay returns the wait before retry number retried (0-based).
func (p RetryPolicy) Delay(retried int) time.Duration {
	return p.Backoff * (1 << retried)
}

var policies = map[string]RetryPolicy{
	TypeWebhookDeliver:     {MaxAttempts: 3, Backoff: 1 * time.Second},
	TypeAutoPaymentExecute: {MaxAttempts: 3, Backoff: 5 * time.Second},
	TypeTxVerify:           {MaxAttempts: 10, Backoff: 5 * time.Second},
}

// PolicyFor returns the retry policy for a task type.
func PolicyFor(taskType string) RetryPolicy {
	if p, ok := policies[taskType]; ok {
		return p
	}
	return RetryPolicy{MaxAttempts: 1, Backoff: time.Second}
}

// RetryDelay is plugged into the worker server so the queue, not the
// handler, owns the backoff schedule.
func RetryDelay(retried int, _ error, task *asynq.Task) time.Duration {
	return PolicyFor(task.Type()).Delay(retried)
}

// Terminal wraps err so the queue abandons the job instead of retrying.
func Terminal(err error) error {
	return fmt.Errorf("%w: %w", asynq.SkipRetry, err)
}

// IsDuplicate reports whether an enqueue failed only because a task with
// the same ID is already queued. Callers treat that as success.
func IsDuplicate(err error) bool {
	return errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask)
}

// WebhookDeliverPayload is one outbound delivery to one subscriber.
type WebhookDeliverPayload struct {
	URL     string          `json:"url"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// AutoPaymentExecutePayload is one execution of a due schedule.
type AutoPaymentExecutePayload struct {
	AutoPaymentID    string          `json:"auto_payment_id"`
	AgentID          string          `json:"agent_id"`
	AgentWallet      string          `json:"agent_wallet"`
	RecipientAddress string          `json:"recipient_address"`
	AmountUSDC       decimal.Decimal `json:"amount_usdc"`
}

// TxVerifyPayload is one settlement reference to confirm.
type TxVerifyPayload struct {
	TxHash       string `json:"tx_hash"`
	ExperimentID string `json:"experiment_id,omitempty"`
}

// NewWebhookDeliverTask builds a delivery task with its policy applied.
func NewWebhookDeliverTask(payload *WebhookDeliverPayload) (*asynq.Task, []asynq.Option, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	return asynq.NewTask(TypeWebhookDeliver, raw), optsFor(TypeWebhookDeliver, QueueWebhooks), nil
}

// NewAutoPaymentExecuteTask builds an execution task. The task ID carries
// the enqueue time, so the same schedule can be enqueued again on a later
// tick but not twice within one.
func NewAutoPaymentExecuteTask(payload *AutoPaymentExecutePayload, enqueuedAt time.Time) (*asynq.Task, []asynq.Option, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := optsFor(TypeAutoPaymentExecute, QueueAutoPayments)
	opts = append(opts, asynq.TaskID(fmt.Sprintf("auto-payment-%s-%d", payload.AutoPaymentID, enqueuedAt.UnixMilli())))
	return asynq.NewTask(TypeAutoPaymentExecute, raw), opts, nil
}

// NewTxVerifyTask builds a verification task keyed by the settlement
// reference, so tracking the same hash twice enqueues once.
func NewTxVerifyTask(payload *TxVerifyPayload) (*asynq.Task, []asynq.Option, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := optsFor(TypeTxVerify, QueueTxVerify)
	opts = append(opts, asynq.TaskID("tx-verify-"+payload.TxHash))
	return asynq.NewTask(TypeTxVerify, raw), opts, nil
}

func optsFor(taskType, queueName string) []asynq.Option {
	policy := PolicyFor(taskType)
	return []asynq.Option{
		asynq.Queue(queueName),
		// asynq counts retries after the first attempt.
		asynq.MaxRetry(policy.MaxAttempts - 1),
	}
}
