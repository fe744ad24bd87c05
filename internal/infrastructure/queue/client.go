package queue

import (
	"context"

	"github.com/hibiken/asynq"
)

// Enqueuer is the producer-side surface. Use cases depend on this, not on
// the asynq client, so tests can capture enqueued tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error
}

// Client wraps the asynq producer. Duplicate task IDs are absorbed here so
// callers never see them as failures.
type Client struct {
	inner *asynq.Client
}

func NewClient(redisAddr, redisPassword string, redisDB int) *Client {
	return &Client{inner: asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})}
}

func (c *Client) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	_, err := c.inner.EnqueueContext(ctx, task, opts...)
	if IsDuplicate(err) {
		return nil
	}
	return err
}

func (c *Client) Close() error {
	return c.inner.Close()
}
