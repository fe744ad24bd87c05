package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentmart.backend/internal/infrastructure/queue"
	"agentmart.backend/pkg/netguard"
)

func deliverTask(t *testing.T, url string) *asynq.Task {
	t.Helper()
	task, _, err := queue.NewWebhookDeliverTask(&queue.WebhookDeliverPayload{
		URL:     url,
		Event:   "purchase.completed",
		Payload: json.RawMessage(`{"purchaseId":"p-1"}`),
	})
	require.NoError(t, err)
	return task
}

func TestWebhookDeliveryHandler_Success(t *testing.T) {
	var gotUA, gotEvent string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotEvent = r.Header.Get("X-Webhook-Event")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewWebhookDeliveryHandler(5*time.Second, netguard.Options{AllowPrivateHosts: true, AllowHTTP: true})
	require.NoError(t, h.ProcessTask(context.Background(), deliverTask(t, srv.URL)))

	assert.Equal(t, "AgentMart-Webhook/1.0", gotUA)
	assert.Equal(t, "purchase.completed", gotEvent)
	assert.Equal(t, "purchase.completed", gotBody["event"])
	assert.NotEmpty(t, gotBody["timestamp"])
	inner, ok := gotBody["payload"].(map[string]interface{})
	require.True(t, ok, "payload key missing: %v", gotBody)
	assert.Equal(t, "p-1", inner["purchaseId"])
}

func TestWebhookDeliveryHandler_Non2xxIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := NewWebhookDeliveryHandler(5*time.Second, netguard.Options{AllowPrivateHosts: true, AllowHTTP: true})
	err := h.ProcessTask(context.Background(), deliverTask(t, srv.URL))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.ErrorContains(t, err, "status 500")
}

func TestWebhookDeliveryHandler_RedirectNotFollowed(t *testing.T) {
	var followed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/target" {
			followed = true
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/target", http.StatusFound)
	}))
	defer srv.Close()

	h := NewWebhookDeliveryHandler(5*time.Second, netguard.Options{AllowPrivateHosts: true, AllowHTTP: true})
	err := h.ProcessTask(context.Background(), deliverTask(t, srv.URL))
	require.Error(t, err)
	assert.False(t, followed)
}

func TestWebhookDeliveryHandler_PrivateDestinationIsTerminal(t *testing.T) {
	h := NewWebhookDeliveryHandler(5*time.Second, netguard.Options{})

	err := h.ProcessTask(context.Background(), deliverTask(t, "http://169.254.169.254/latest/meta-data"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = h.ProcessTask(context.Background(), deliverTask(t, "https://localhost/hook"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestWebhookDeliveryHandler_BadPayloadIsTerminal(t *testing.T) {
	h := NewWebhookDeliveryHandler(5*time.Second, netguard.Options{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(queue.TypeWebhookDeliver, []byte("{not json")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
