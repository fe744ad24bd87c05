package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AutoPayment struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	AgentID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	RecipientAddress string          `gorm:"type:text;not null"`
	AmountUSDC       decimal.Decimal `gorm:"column:amount_usdc;type:numeric;not null"`
	IntervalSeconds  int             `gorm:"not null"`
	Description      *string         `gorm:"type:text"`
	IsActive         bool            `gorm:"not null;default:true"`
	LastExecutedAt   *time.Time
	CreatedAt        time.Time

	Agent Agent `gorm:"foreignKey:AgentID"`
}
