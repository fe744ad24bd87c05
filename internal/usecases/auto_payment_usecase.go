package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agentmart.backend/internal/domain/entities"
	domainerrors "agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/domain/repositories"
	"agentmart.backend/pkg/logger"
)

// AutoPaymentUsecase registers and reads recurring payment schedules.
// Execution is the scheduler's and worker's job.
type AutoPaymentUsecase struct {
	autoPayments repositories.AutoPaymentRepository
	agents       repositories.AgentRepository
	audit        repositories.AuditLogRepository
}

func NewAutoPaymentUsecase(
	autoPayments repositories.AutoPaymentRepository,
	agents repositories.AgentRepository,
	audit repositories.AuditLogRepository,
) *AutoPaymentUsecase {
	return &AutoPaymentUsecase{
		autoPayments: autoPayments,
		agents:       agents,
		audit:        audit,
	}
}

// CreateAutoPayment registers a schedule for an existing agent. A new
// schedule has no last_executed_at, so the next scheduler tick picks it up.
func (u *AutoPaymentUsecase) CreateAutoPayment(ctx context.Context, input *entities.CreateAutoPaymentInput) (*entities.AutoPayment, error) {
	exists, err := u.agents.Exists(ctx, input.AgentID)
	if err != nil {
		return nil, domainerrors.InternalError("auto_payment_create_failed", err)
	}
	if !exists {
		return nil, domainerrors.NotFound("agent_not_found", "Agent not found.", "Register the agent before scheduling payments for it.")
	}

	created, err := u.autoPayments.Create(ctx, input)
	if err != nil {
		return nil, domainerrors.InternalError("auto_payment_create_failed", err)
	}

	// Best-effort; the schedule exists regardless.
	if auditErr := u.audit.Record(ctx, &entities.AuditLog{
		AgentID: &created.AgentID,
		Action:  entities.AuditActionAutoPaymentCreated,
		Metadata: map[string]interface{}{
			"auto_payment_id":  created.ID.String(),
			"recipient":        created.RecipientAddress,
			"amount_usdc":      created.AmountUSDC.String(),
			"interval_seconds": created.IntervalSeconds,
		},
	}); auditErr != nil {
		logger.Error(ctx, "Best-effort side effect failed", zap.String("effect", "auto-payment audit"), zap.Error(auditErr))
	}

	return created, nil
}

// GetAutoPayment returns one schedule by ID.
func (u *AutoPaymentUsecase) GetAutoPayment(ctx context.Context, id uuid.UUID) (*entities.AutoPayment, error) {
	found, err := u.autoPayments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("auto_payment_not_found", "Auto-payment not found.", "")
		}
		return nil, domainerrors.InternalError("auto_payment_get_failed", err)
	}
	return found, nil
}
