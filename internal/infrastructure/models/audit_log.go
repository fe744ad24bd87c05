package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	AgentID   *uuid.UUID `gorm:"type:uuid;index"`
	Action    string     `gorm:"type:text;not null"`
	Metadata  string     `gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time
}

type ExperimentEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Ts           time.Time `gorm:"not null;index:idx_experiment_events_exp_ts,priority:2"`
	ExperimentID string    `gorm:"type:text;not null;index:idx_experiment_events_exp_ts,priority:1"`
	Condition    string    `gorm:"type:text;not null;default:'A'"`
	AgentID      *string   `gorm:"type:text"`
	SessionID    *string   `gorm:"type:text"`
	Event        string    `gorm:"type:text;not null"`
	ProductID    *uuid.UUID
	PriceUSDC    *decimal.Decimal `gorm:"column:price_usdc;type:numeric"`
	TxHash       *string          `gorm:"type:text"`
	Status       *string          `gorm:"type:text"`
	Reason       *string          `gorm:"type:text"`
	Metadata     string           `gorm:"type:jsonb;default:'{}'"`
}
