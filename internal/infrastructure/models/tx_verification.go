package models

import (
	"time"

	"github.com/google/uuid"
)

type TxVerification struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TxHash       string    `gorm:"type:text;not null;uniqueIndex:idx_tx_verifications_tx_hash"`
	ExperimentID *string   `gorm:"type:text"`
	Status       string    `gorm:"type:text;not null;default:'pending';index"`
	GasUsed      *string   `gorm:"type:numeric"`
	RevertReason *string   `gorm:"type:text"`
	BlockNumber  *int64
	Attempts     int `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
