package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogCallsBeforeInitDoNotPanic(t *testing.T) {
	prev := log
	defer func() { log = prev }()
	log = nil

	ctx := context.Background()
	assert.NotPanics(t, func() {
		Info(ctx, "msg")
		Warn(ctx, "msg", zap.String("k", "v"))
		Error(ctx, "msg")
		Debug(ctx, "msg")
		LogRequest(ctx, "GET", "/health", 200, time.Millisecond, "127.0.0.1")
		Sync()
	})
	assert.NotNil(t, WithContext(nil))
}

func TestWithContextAddsRequestID(t *testing.T) {
	prev := log
	defer func() { log = prev }()

	core, entries := observer.New(zap.InfoLevel)
	log = zap.New(core)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	Info(ctx, "typed key")

	//nolint:staticcheck // gin middleware stores the id under a string key
	ctx = context.WithValue(context.Background(), "request_id", "req-456")
	Info(ctx, "string key")

	all := entries.All()
	require.Len(t, all, 2)
	assert.Equal(t, "req-123", all[0].ContextMap()["request_id"])
	assert.Equal(t, "req-456", all[1].ContextMap()["request_id"])
}
