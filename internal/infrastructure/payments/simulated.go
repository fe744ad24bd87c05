package payments

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agentmart.backend/pkg/logger"
)

// SimulatedExecutor never touches a chain and never fails. Selected by
// configuration for environments without a live payment rail; the synthetic
// reference it returns is still tracked by the verification worker, which
// will give up after its attempt budget.
type SimulatedExecutor struct{}

// NewSimulatedExecutor creates the rail-less executor.
func NewSimulatedExecutor() *SimulatedExecutor {
	return &SimulatedExecutor{}
}

// Execute returns a synthetic settlement reference.
func (e *SimulatedExecutor) Execute(ctx context.Context, purchaseID uuid.UUID, sellerWallet string, amountUSDC decimal.Decimal, buyerWallet string) (*ExecutionResult, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	txHash := "0x" + hex.EncodeToString(raw)

	logger.Warn(ctx, "Simulated payment executor used, no funds moved",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("seller", sellerWallet),
		zap.String("amount", amountUSDC.String()),
		zap.String("tx_hash", txHash),
	)

	return &ExecutionResult{
		TxHash:      txHash,
		BuyerWallet: buyerWallet,
	}, nil
}
