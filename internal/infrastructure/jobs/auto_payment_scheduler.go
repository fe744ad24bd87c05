package jobs

import (
	"context"
	"log"
	"time"

	"agentmart.backend/internal/domain/repositories"
	"agentmart.backend/internal/infrastructure/queue"
)

// AutoPaymentScheduler polls for due payment schedules and enqueues one
// execution task per schedule. The task ID includes the tick timestamp, so
// a schedule picked up by two overlapping pollers is enqueued once.
type AutoPaymentScheduler struct {
	repo     repositories.AutoPaymentRepository
	enqueuer queue.Enqueuer
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
}

func NewAutoPaymentScheduler(repo repositories.AutoPaymentRepository, enqueuer queue.Enqueuer, interval time.Duration) *AutoPaymentScheduler {
	return &AutoPaymentScheduler{
		repo:     repo,
		enqueuer: enqueuer,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (s *AutoPaymentScheduler) Start(ctx context.Context) {
	log.Println("🕐 Starting auto-payment scheduler...")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Schedules due before startup should not wait out a full interval.
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Auto-payment scheduler stopped (context cancelled)")
			return
		case <-s.stop:
			log.Println("⏹️ Auto-payment scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func (s *AutoPaymentScheduler) Stop() {
	close(s.stop)
}

// Tick runs one polling pass. A failure to enqueue one schedule does not
// block the rest; the next tick picks it up again.
func (s *AutoPaymentScheduler) Tick(ctx context.Context) {
	now := s.now()

	due, err := s.repo.FindDue(ctx, now)
	if err != nil {
		log.Printf("❌ Error fetching due auto-payments: %v", err)
		return
	}

	if len(due) == 0 {
		return
	}

	log.Printf("🔄 Enqueueing %d due auto-payments...", len(due))

	for _, d := range due {
		task, opts, err := queue.NewAutoPaymentExecuteTask(&queue.AutoPaymentExecutePayload{
			AutoPaymentID:    d.ID.String(),
			AgentID:          d.AgentID.String(),
			AgentWallet:      d.AgentWalletAddress,
			RecipientAddress: d.RecipientAddress,
			AmountUSDC:       d.AmountUSDC,
		}, now)
		if err != nil {
			log.Printf("❌ Error building auto-payment task %s: %v", d.ID, err)
			continue
		}
		if err := s.enqueuer.Enqueue(ctx, task, opts...); err != nil {
			log.Printf("❌ Error enqueueing auto-payment %s: %v", d.ID, err)
		}
	}
}
