package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RiskBand is the coarse classification derived from the composite score.
type RiskBand string

const (
	RiskBandLow    RiskBand = "Low"
	RiskBandMedium RiskBand = "Medium"
	RiskBandHigh   RiskBand = "High"
)

func (b RiskBand) Valid() bool {
	switch b {
	case RiskBandLow, RiskBandMedium, RiskBandHigh:
		return true
	}
	return false
}

// ScoreMetrics are the raw inputs each component score was derived from.
type ScoreMetrics struct {
	TransactionCount    int     `json:"transaction_count"`
	TotalRevenue        float64 `json:"total_revenue"`
	AvgMonthlyRevenue   float64 `json:"avg_monthly_revenue"`
	RevenueVolatility   float64 `json:"revenue_volatility"`
	GrowthMoM           float64 `json:"growth_mom"`
	RefundRate          float64 `json:"refund_rate"`
	AvgSettlementDays   float64 `json:"avg_settlement_days"`
	SettlementSamples   int     `json:"settlement_samples"`
	RevenueDaysObserved int     `json:"revenue_days_observed"`
}

// Value implements the driver.Valuer interface
func (m ScoreMetrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *ScoreMetrics) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = ScoreMetrics{}
		return nil
	}
	return fmt.Errorf("unsupported metrics type %T", value)
}

// CreditScoreSnapshot is immutable once written. History is append-only and
// the latest snapshot is the one with the greatest CalculatedAt.
type CreditScoreSnapshot struct {
	ID               uint            `gorm:"primarykey" json:"id"`
	MerchantID       string          `gorm:"size:64;not null;index:idx_score_merchant_time,priority:1" json:"merchant_id"`
	CalculatedAt     time.Time       `gorm:"not null;index:idx_score_merchant_time,priority:2" json:"calculated_at"`
	Score            int             `gorm:"not null" json:"score"`
	RiskBand         RiskBand        `gorm:"size:8;not null" json:"risk_band"`
	MinCreditLimit   decimal.Decimal `gorm:"type:decimal(20,2)" json:"min_credit_limit"`
	MaxCreditLimit   decimal.Decimal `gorm:"type:decimal(20,2)" json:"max_credit_limit"`
	VolumeScore      float64         `json:"volume_score"`
	ConsistencyScore float64         `json:"consistency_score"`
	GrowthScore      float64         `json:"growth_score"`
	RefundScore      float64         `json:"refund_score"`
	SettlementScore  float64         `json:"settlement_score"`
	Metrics          ScoreMetrics    `gorm:"type:jsonb" json:"metrics"`
	Explanation      string          `gorm:"type:text" json:"explanation"`
	Recommendation   string          `gorm:"type:text" json:"recommendation"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (CreditScoreSnapshot) TableName() string { return "credit_score_snapshots" }

func (s *CreditScoreSnapshot) BeforeCreate(tx *gorm.DB) error {
	if !s.RiskBand.Valid() {
		return fmt.Errorf("unknown risk band %q", s.RiskBand)
	}
	return nil
}
