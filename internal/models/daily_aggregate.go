package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyAggregate is the per-merchant, per-calendar-day rollup used as the
// rolling-window unit for scoring and early warning.
//
// Grain: (merchant_id, day). Derived data, rebuildable from transactions.
// TotalAmount counts successful revenue only; TransactionCount counts every
// transaction recorded on the day regardless of status.
type DailyAggregate struct {
	MerchantID       string          `gorm:"primaryKey;size:64" json:"merchant_id"`
	Day              time.Time       `gorm:"primaryKey;type:date" json:"day"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,2);default:0" json:"total_amount"`
	TransactionCount int             `gorm:"default:0" json:"transaction_count"`
	SuccessCount     int             `gorm:"default:0" json:"success_count"`
	FailCount        int             `gorm:"default:0" json:"fail_count"`
	RefundCount      int             `gorm:"default:0" json:"refund_count"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyAggregate) TableName() string { return "daily_aggregates" }

// DateRange is half-open: Start <= t < End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Days returns the number of whole calendar days covered by the range.
func (r DateRange) Days() int {
	if !r.End.After(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours() / 24)
}
