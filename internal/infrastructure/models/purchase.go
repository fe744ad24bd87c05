package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ListingID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	BuyerWallet    string          `gorm:"type:text;not null;index"`
	SellerAgentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	AmountUSDC     decimal.Decimal `gorm:"column:amount_usdc;type:numeric;not null"`
	TxHash         *string         `gorm:"type:text"`
	Status         string          `gorm:"type:text;not null;default:'pending';index"`
	IdempotencyKey string          `gorm:"type:text;not null;uniqueIndex:idx_purchases_idempotency_key"`
	CreatedAt      time.Time

	Listing     Listing `gorm:"foreignKey:ListingID"`
	SellerAgent Agent   `gorm:"foreignKey:SellerAgentID"`
}

type Listing struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AgentID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Title       string          `gorm:"type:text;not null"`
	Description *string         `gorm:"type:text"`
	ProductType string          `gorm:"type:text;not null"`
	PriceUSDC   decimal.Decimal `gorm:"column:price_usdc;type:numeric;not null"`
	Status      string          `gorm:"type:text;not null;default:'active'"`
	CreatedAt   time.Time
}

type Agent struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"type:text;not null"`
	WalletAddress string    `gorm:"type:text;not null"`
	CreatedAt     time.Time
}
