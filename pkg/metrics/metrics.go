// Package metrics registers the Prometheus collectors for the settlement
// core. Counters only; latency histograms belong to the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchasesTotal counts purchase outcomes by terminal result.
	PurchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmart_purchases_total",
		Help: "Purchase attempts by outcome (completed, failed, replayed, finalize_failed).",
	}, []string{"outcome"})

	// WebhookDeliveriesTotal counts webhook delivery attempts by result.
	WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmart_webhook_deliveries_total",
		Help: "Webhook delivery attempts (delivered, error, rejected).",
	}, []string{"result"})

	// JobRetriesTotal counts job handler failures that trigger a queue retry.
	JobRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmart_job_retries_total",
		Help: "Retryable job failures by task type.",
	}, []string{"task"})

	// AutoPaymentsExecutedTotal counts auto-payment executions by result.
	AutoPaymentsExecutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmart_auto_payments_executed_total",
		Help: "Auto-payment executions (executed, failed).",
	}, []string{"result"})

	// TxVerificationsTotal counts settlement verifications by terminal status.
	TxVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentmart_tx_verifications_total",
		Help: "Settlement verification outcomes (confirmed, reverted, gave_up).",
	}, []string{"status"})
)
