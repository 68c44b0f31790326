package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AlertType names one of the five early-warning detectors.
type AlertType string

const (
	AlertTypeRevenueDrop     AlertType = "REVENUE_DROP"
	AlertTypeRefundSpike     AlertType = "REFUND_SPIKE"
	AlertTypeSettlementDelay AlertType = "SETTLEMENT_DELAY"
	AlertTypeTransactionDrop AlertType = "TRANSACTION_DROP"
	AlertTypeScoreDrop       AlertType = "SCORE_DROP"
)

// AlertTypes lists every detector in evaluation order.
var AlertTypes = []AlertType{
	AlertTypeRevenueDrop,
	AlertTypeRefundSpike,
	AlertTypeSettlementDelay,
	AlertTypeTransactionDrop,
	AlertTypeScoreDrop,
}

func (t AlertType) Valid() bool {
	for _, at := range AlertTypes {
		if t == at {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// EarlyWarningAlert records one detected anomaly. The core never resolves an
// alert; Resolved is flipped by an operator.
type EarlyWarningAlert struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	AlertID        string     `gorm:"size:36;uniqueIndex;not null" json:"alert_id"`
	MerchantID     string     `gorm:"size:64;not null;index:idx_alert_merchant_type,priority:1" json:"merchant_id"`
	Type           AlertType  `gorm:"size:32;not null;index:idx_alert_merchant_type,priority:2" json:"type"`
	Severity       Severity   `gorm:"size:16;not null" json:"severity"`
	MetricValue    float64    `json:"metric_value"`
	ThresholdValue float64    `json:"threshold_value"`
	Description    string     `gorm:"type:text" json:"description"`
	Annotation     string     `gorm:"type:text" json:"annotation"`
	DetectedAt     time.Time  `gorm:"not null" json:"detected_at"`
	Resolved       bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (EarlyWarningAlert) TableName() string { return "early_warning_alerts" }

// BeforeCreate keeps unknown detector names and severities out of the table.
func (a *EarlyWarningAlert) BeforeCreate(tx *gorm.DB) error {
	if !a.Type.Valid() {
		return fmt.Errorf("unknown alert type %q", a.Type)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", a.Severity)
	}
	return nil
}
