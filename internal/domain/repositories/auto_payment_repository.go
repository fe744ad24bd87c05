package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agentmart.backend/internal/domain/entities"
)

// AutoPaymentRepository persists recurring payment schedules.
type AutoPaymentRepository interface {
	Create(ctx context.Context, input *entities.CreateAutoPaymentInput) (*entities.AutoPayment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*entities.AutoPayment, error)

	// FindDue selects active due schedules joined with the owning agent's
	// wallet address, as of now. A schedule whose last_executed_at lies in
	// the future is not due.
	FindDue(ctx context.Context, now time.Time) ([]*entities.DueAutoPayment, error)

	// TouchExecuted updates last_executed_at after an execution attempt,
	// successful or simulated.
	TouchExecuted(ctx context.Context, id uuid.UUID, at time.Time) error
}
