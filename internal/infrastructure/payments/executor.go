// Package payments holds the money-movement boundary. The executor is an
// opaque, possibly-slow, possibly-failing external call: the purchase
// service invokes it outside any database transaction and treats its result
// as final.
package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExecutionResult is what a successful transfer reports back. BuyerWallet
// is the wallet that actually paid, which may differ from the one the
// caller requested (custodial test wallets pay from their own address).
type ExecutionResult struct {
	TxHash      string
	BuyerWallet string
}

// Executor performs one irreversible USDC transfer to the seller.
type Executor interface {
	Execute(ctx context.Context, purchaseID uuid.UUID, sellerWallet string, amountUSDC decimal.Decimal, buyerWallet string) (*ExecutionResult, error)
}
