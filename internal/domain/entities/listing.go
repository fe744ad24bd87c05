package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingStatus represents listing availability
type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusArchived ListingStatus = "archived"
)

// Listing is a product offered by an agent. The settlement core only reads
// listings; their CRUD surface lives elsewhere.
type Listing struct {
	ID          uuid.UUID       `json:"id"`
	AgentID     uuid.UUID       `json:"agentId"`
	Title       string          `json:"title"`
	ProductType string          `json:"productType"`
	PriceUSDC   decimal.Decimal `json:"priceUsdc"`
	Status      ListingStatus   `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Agent is a marketplace participant that owns listings and receives
// settlement funds at its wallet address.
type Agent struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}
