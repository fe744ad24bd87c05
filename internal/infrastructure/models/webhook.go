package models

import (
	"time"

	"github.com/google/uuid"
)

type Webhook struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventType string    `gorm:"type:text;not null;index"`
	URL       string    `gorm:"type:text;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
}

func (Webhook) TableName() string {
	return "webhooks"
}
