// Package scoring turns a merchant's trailing transaction history into a
// composite credit score, a risk band and an indicative credit limit.
//
// Engine is pure. Service loads its inputs, persists snapshots and keeps the
// latest score cached.
package scoring

import (
	"fmt"
	"math"

	"paybaba/internal/models"
	"paybaba/internal/services/aggregate"

	"github.com/shopspring/decimal"
)

// Component weights. They must sum to exactly 1.
const (
	WeightVolume      = 0.25
	WeightConsistency = 0.25
	WeightGrowth      = 0.20
	WeightRefund      = 0.10
	WeightSettlement  = 0.20
)

const (
	// VolumeBenchmark is the trailing-window transaction count that earns a
	// full volume score.
	VolumeBenchmark = 100
	// WindowDays is the trailing scoring window.
	WindowDays = 90
	// GrowthWindowDays is the length of each half of the month-over-month comparison.
	GrowthWindowDays = 30
	// SettlementSLADays is the settlement time beyond which reliability decays faster.
	SettlementSLADays = 3.0

	BandLowMin    = 80
	BandMediumMin = 60

	limitLowerFactor = 0.8
	limitUpperFactor = 1.2

	// neutralScore is used for components with no data to judge.
	neutralScore = 50
)

var bandMultipliers = map[models.RiskBand]float64{
	models.RiskBandLow:    1.5,
	models.RiskBandMedium: 1.0,
	models.RiskBandHigh:   0.5,
}

func init() {
	if sum := WeightVolume + WeightConsistency + WeightGrowth + WeightRefund + WeightSettlement; math.Abs(sum-1) > 1e-9 {
		panic(fmt.Sprintf("scoring: component weights sum to %v, want 1", sum))
	}
}

// Status distinguishes a computed score from the absence of one.
type Status string

const (
	StatusScored           Status = "scored"
	StatusInsufficientData Status = "insufficient_data"
)

// Inputs are the window statistics a score is computed from.
type Inputs struct {
	TransactionCount int
	RefundCount      int
	// TotalRevenue is successful revenue over the whole window.
	TotalRevenue float64
	// WindowMonths converts TotalRevenue into a monthly average.
	WindowMonths float64
	DailyRevenue []float64
	// RevenueCurrent and RevenuePrevious are the two halves of the
	// month-over-month comparison.
	RevenueCurrent  float64
	RevenuePrevious float64
	SettlementDays  []float64
}

type Components struct {
	Volume      float64 `json:"volume"`
	Consistency float64 `json:"consistency"`
	Growth      float64 `json:"growth"`
	Refund      float64 `json:"refund"`
	Settlement  float64 `json:"settlement"`
}

// Composite is the rounded weighted sum of the components.
func (c Components) Composite() int {
	sum := c.Volume*WeightVolume +
		c.Consistency*WeightConsistency +
		c.Growth*WeightGrowth +
		c.Refund*WeightRefund +
		c.Settlement*WeightSettlement
	return int(clamp(math.Round(sum), 0, 100))
}

// Result is either a score (Status == StatusScored) or the insufficient data
// marker, in which case every other field is zero.
type Result struct {
	Status         Status
	Score          int
	RiskBand       models.RiskBand
	Components     Components
	Metrics        models.ScoreMetrics
	MinCreditLimit decimal.Decimal
	MaxCreditLimit decimal.Decimal
}

func (r Result) Scored() bool { return r.Status == StatusScored }

// Compute scores in. With no transactions in the window it returns the
// insufficient data marker rather than a zero score.
func Compute(in Inputs) (Result, error) {
	if err := validateInputs(in); err != nil {
		return Result{}, err
	}
	if in.TransactionCount == 0 {
		return Result{Status: StatusInsufficientData}, nil
	}

	volatility := math.Min(aggregate.CoefficientOfVariation(in.DailyRevenue), 100)
	growth := GrowthPercent(in.RevenueCurrent, in.RevenuePrevious)
	refundRate := float64(in.RefundCount) / float64(in.TransactionCount) * 100
	avgSettlement := aggregate.Mean(in.SettlementDays)

	months := in.WindowMonths
	if months <= 0 {
		months = WindowDays / 30
	}
	avgMonthly := in.TotalRevenue / months

	components := Components{
		Volume:      round2(VolumeScore(in.TransactionCount)),
		Consistency: round2(ConsistencyScore(volatility)),
		Growth:      round2(GrowthScore(growth)),
		Refund:      round2(RefundScore(refundRate)),
		Settlement:  round2(SettlementScore(avgSettlement, len(in.SettlementDays))),
	}
	score := components.Composite()
	band := Band(score)
	minLimit, maxLimit := CreditLimits(avgMonthly, band)

	return Result{
		Status:     StatusScored,
		Score:      score,
		RiskBand:   band,
		Components: components,
		Metrics: models.ScoreMetrics{
			TransactionCount:    in.TransactionCount,
			TotalRevenue:        round2(in.TotalRevenue),
			AvgMonthlyRevenue:   round2(avgMonthly),
			RevenueVolatility:   round2(volatility),
			GrowthMoM:           round2(growth),
			RefundRate:          round2(refundRate),
			AvgSettlementDays:   round2(avgSettlement),
			SettlementSamples:   len(in.SettlementDays),
			RevenueDaysObserved: len(in.DailyRevenue),
		},
		MinCreditLimit: minLimit,
		MaxCreditLimit: maxLimit,
	}, nil
}

// VolumeScore ramps linearly to 100 at VolumeBenchmark transactions.
func VolumeScore(count int) float64 {
	return clamp(float64(count)/VolumeBenchmark*100, 0, 100)
}

// ConsistencyScore is 100 minus revenue volatility (coefficient of variation
// in percent).
func ConsistencyScore(volatility float64) float64 {
	return clamp(100-volatility, 0, 100)
}

// GrowthScore maps 0% month-over-month growth to 50; +/-20% saturates.
func GrowthScore(growthPercent float64) float64 {
	return clamp(50+growthPercent*2.5, 0, 100)
}

// RefundScore reaches 0 at a 5% refund rate.
func RefundScore(refundRatePercent float64) float64 {
	return clamp(100-refundRatePercent*20, 0, 100)
}

// SettlementScore decays with average settlement days. With no settled
// transactions it is neutral.
func SettlementScore(avgDays float64, samples int) float64 {
	if samples == 0 {
		return neutralScore
	}
	switch {
	case avgDays <= 1:
		return 100
	case avgDays <= SettlementSLADays:
		return math.Max(50, 100-avgDays*15)
	case avgDays <= 7:
		return math.Max(0, 50-(avgDays-SettlementSLADays)*10)
	default:
		return 0
	}
}

// GrowthPercent is the change from previous to current in percent, or 0
// when there is no previous revenue to compare against.
func GrowthPercent(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

func Band(score int) models.RiskBand {
	switch {
	case score >= BandLowMin:
		return models.RiskBandLow
	case score >= BandMediumMin:
		return models.RiskBandMedium
	default:
		return models.RiskBandHigh
	}
}

// CreditLimits returns the indicative limit range for a monthly revenue and band.
func CreditLimits(avgMonthlyRevenue float64, band models.RiskBand) (decimal.Decimal, decimal.Decimal) {
	base := decimal.NewFromFloat(avgMonthlyRevenue).Mul(decimal.NewFromFloat(bandMultipliers[band]))
	return base.Mul(decimal.NewFromFloat(limitLowerFactor)).Round(2),
		base.Mul(decimal.NewFromFloat(limitUpperFactor)).Round(2)
}

func validateInputs(in Inputs) error {
	if in.TransactionCount < 0 || in.RefundCount < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidInputs)
	}
	if in.RefundCount > in.TransactionCount {
		return fmt.Errorf("%w: refunds exceed transactions", ErrInvalidInputs)
	}
	for _, v := range []float64{in.TotalRevenue, in.RevenueCurrent, in.RevenuePrevious, in.WindowMonths} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: revenue figures must be finite and non-negative", ErrInvalidInputs)
		}
	}
	for _, series := range [][]float64{in.DailyRevenue, in.SettlementDays} {
		for _, v := range series {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return fmt.Errorf("%w: series values must be finite and non-negative", ErrInvalidInputs)
			}
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
