package queue

import (
	"github.com/hibiken/asynq"
)

// NewServer builds a worker for a single queue with a fixed concurrency.
// Each queue gets its own server so a slow verification backlog cannot
// starve webhook deliveries.
func NewServer(redisAddr, redisPassword string, redisDB int, queueName string, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		},
		asynq.Config{
			Concurrency:    concurrency,
			Queues:         map[string]int{queueName: 1},
			RetryDelayFunc: RetryDelay,
		},
	)
}
