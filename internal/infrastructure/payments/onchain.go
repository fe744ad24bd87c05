package payments

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"agentmart.backend/internal/domain/errors"
	"agentmart.backend/internal/infrastructure/blockchain"
	"agentmart.backend/pkg/logger"
)

// OnchainExecutor moves USDC over an ERC-20 contract with a configured
// buyer key. It checks the buyer balance before submitting and applies a
// hard timeout to the whole call.
type OnchainExecutor struct {
	client       *blockchain.EVMClient
	usdcContract string
	buyerKey     *ecdsa.PrivateKey
	timeout      time.Duration
}

// NewOnchainExecutor creates an executor backed by a live payment rail.
func NewOnchainExecutor(client *blockchain.EVMClient, usdcContract, buyerKeyHex string, timeout time.Duration) (*OnchainExecutor, error) {
	if usdcContract == "" {
		return nil, fmt.Errorf("usdc contract address is required")
	}
	key, err := blockchain.ParsePrivateKey(buyerKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse buyer key: %w", err)
	}
	return &OnchainExecutor{
		client:       client,
		usdcContract: usdcContract,
		buyerKey:     key,
		timeout:      timeout,
	}, nil
}

// Execute submits the transfer and returns the settlement reference. There
// is no cooperative cancellation once the transaction is sent; the caller
// tracks it to completion via transaction verification.
func (e *OnchainExecutor) Execute(ctx context.Context, purchaseID uuid.UUID, sellerWallet string, amountUSDC decimal.Decimal, buyerWallet string) (*ExecutionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payingWallet := blockchain.AddressFromKey(e.buyerKey)

	decimals, err := e.client.TokenDecimals(ctx, e.usdcContract)
	if err != nil {
		return nil, fmt.Errorf("query token decimals: %w", err)
	}
	amountRaw := amountUSDC.Shift(int32(decimals)).BigInt()

	balance, err := e.client.TokenBalance(ctx, e.usdcContract, payingWallet)
	if err != nil {
		return nil, fmt.Errorf("query buyer balance: %w", err)
	}
	if balance.Cmp(amountRaw) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s",
			errors.ErrInsufficientFunds, balance.String(), amountRaw.String())
	}

	logger.Info(ctx, "Submitting USDC transfer",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("buyer", payingWallet),
		zap.String("seller", sellerWallet),
		zap.String("amount", amountUSDC.String()),
	)

	txHash, err := e.client.TransferToken(ctx, e.buyerKey, e.usdcContract, sellerWallet, amountRaw)
	if err != nil {
		return nil, fmt.Errorf("submit transfer: %w", err)
	}

	logger.Info(ctx, "USDC transfer submitted",
		zap.String("purchase_id", purchaseID.String()),
		zap.String("tx_hash", txHash),
	)

	return &ExecutionResult{
		TxHash:      txHash,
		BuyerWallet: payingWallet,
	}, nil
}
