package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// PurchaseStatus represents the purchase lifecycle state
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// Terminal reports whether no further transition is permitted.
func (s PurchaseStatus) Terminal() bool {
	return s == PurchaseStatusCompleted || s == PurchaseStatusFailed
}

// Purchase represents one attempt to buy one listing. The amount is copied
// from the listing price at creation time and never changes afterwards.
type Purchase struct {
	ID             uuid.UUID       `json:"id"`
	ListingID      uuid.UUID       `json:"listingId"`
	BuyerWallet    string          `json:"buyerWallet"`
	SellerAgentID  uuid.UUID       `json:"sellerAgentId"`
	AmountUSDC     decimal.Decimal `json:"amountUsdc"`
	Status         PurchaseStatus  `json:"status"`
	TxHash         null.String     `json:"txHash,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey"`
	CreatedAt      time.Time       `json:"createdAt"`

	// Joins (list endpoint only)
	ListingTitle string `json:"listingTitle,omitempty"`
	SellerName   string `json:"sellerName,omitempty"`
}

// CreatePurchaseInput represents input for creating a purchase
type CreatePurchaseInput struct {
	ListingID      uuid.UUID `json:"listingId"`
	BuyerWallet    string    `json:"buyerWallet"`
	IdempotencyKey string    `json:"idempotencyKey"`
}

// PurchaseListFilters holds optional equality filters plus paging
type PurchaseListFilters struct {
	Status      string
	ListingID   *uuid.UUID
	BuyerWallet string
	Limit       int
	Offset      int
}

// PurchaseResult is the service-level outcome of a create call. Replayed is
// true when an existing purchase with the same idempotency key was returned
// instead of a new row.
type PurchaseResult struct {
	Purchase *Purchase `json:"purchase"`
	Replayed bool      `json:"-"`
}
