package models

import (
	"time"
)

const (
	MerchantStatusActive    = "active"
	MerchantStatusSuspended = "suspended"
)

// Merchant is the owner of transactions, scores and alerts.
type Merchant struct {
	ID           string `gorm:"primaryKey;size:64" json:"id"`
	BusinessName string `gorm:"not null" json:"business_name"`
	BusinessType string `json:"business_type"`
	Status       string `gorm:"default:'active';index" json:"status"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
