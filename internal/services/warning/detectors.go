// Package warning raises early-warning alerts when a merchant's recent
// activity deteriorates against its own history.
//
// The detectors are pure and stateless: each evaluation looks only at the
// data it is given. Service adds persistence, duplicate suppression and
// annotation.
package warning

import (
	"fmt"
	"math"
	"sort"

	"paybaba/internal/models"
	"paybaba/internal/services/aggregate"
)

const (
	LookbackDays   = 30
	RecentDays     = 10
	HistoricalDays = LookbackDays - RecentDays

	MinDayRows             = 10
	MinRefundTransactions  = 50
	MinSettledTransactions = 10
	MinSnapshots           = 2

	RevenueDropThreshold     = 30.0
	TransactionDropThreshold = 25.0
	RefundSpikeThreshold     = 5.0
	SettlementSLADays        = 3.0
	ScoreDropThreshold       = 15.0
)

// Detection is one positive detector result.
type Detection struct {
	Type           models.AlertType
	Severity       models.Severity
	MetricValue    float64
	ThresholdValue float64
	Description    string
}

// dropBand grades a percentage drop: at or above critical is Critical, at or
// above medium is Medium, anything else Low. A 40% drop is Medium.
func dropBand(v, critical, medium float64) models.Severity {
	switch {
	case v >= critical:
		return models.SeverityCritical
	case v >= medium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// band grades v strictly: above critical is Critical, above medium is
// Medium, anything else Low.
func band(v, critical, medium float64) models.Severity {
	switch {
	case v > critical:
		return models.SeverityCritical
	case v > medium:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// DropPercent is how far recent fell below historical, in percent.
func DropPercent(recent, historical float64) float64 {
	if historical <= 0 {
		return 0
	}
	return round2((historical - recent) / historical * 100)
}

// DetectRevenueDrop compares the recent and historical average daily revenue.
// samples is the number of day rows behind both averages.
func DetectRevenueDrop(recentAvg, historicalAvg float64, samples int) (Detection, bool) {
	if samples < MinDayRows || historicalAvg <= 0 {
		return Detection{}, false
	}
	drop := DropPercent(recentAvg, historicalAvg)
	if drop <= RevenueDropThreshold {
		return Detection{}, false
	}
	return Detection{
		Type:           models.AlertTypeRevenueDrop,
		Severity:       dropBand(drop, 50, 40),
		MetricValue:    drop,
		ThresholdValue: RevenueDropThreshold,
		Description: fmt.Sprintf("Average daily revenue over the last %d days (%.2f) is %.2f%% below the prior %d-day average (%.2f).",
			RecentDays, recentAvg, drop, HistoricalDays, historicalAvg),
	}, true
}

// DetectTransactionDrop compares the recent and historical average daily
// transaction count.
func DetectTransactionDrop(recentAvg, historicalAvg float64, samples int) (Detection, bool) {
	if samples < MinDayRows || historicalAvg <= 0 {
		return Detection{}, false
	}
	drop := DropPercent(recentAvg, historicalAvg)
	if drop <= TransactionDropThreshold {
		return Detection{}, false
	}
	return Detection{
		Type:           models.AlertTypeTransactionDrop,
		Severity:       dropBand(drop, 50, 40),
		MetricValue:    drop,
		ThresholdValue: TransactionDropThreshold,
		Description: fmt.Sprintf("Average daily transactions over the last %d days (%.1f) are %.2f%% below the prior %d-day average (%.1f).",
			RecentDays, recentAvg, drop, HistoricalDays, historicalAvg),
	}, true
}

// DetectRefundSpike splits txs by time into an earlier and a later half and
// compares their refund rates in percentage points.
func DetectRefundSpike(txs []models.Transaction) (Detection, bool) {
	if len(txs) < MinRefundTransactions {
		return Detection{}, false
	}
	sorted := make([]models.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TransactionAt.Before(sorted[j].TransactionAt) })

	mid := len(sorted) / 2
	earlier := RefundRate(sorted[:mid])
	later := RefundRate(sorted[mid:])
	increase := round2(later - earlier)
	if increase <= RefundSpikeThreshold {
		return Detection{}, false
	}
	return Detection{
		Type:           models.AlertTypeRefundSpike,
		Severity:       band(increase, 15, 10),
		MetricValue:    increase,
		ThresholdValue: RefundSpikeThreshold,
		Description: fmt.Sprintf("Refund rate rose from %.2f%% to %.2f%% (+%.2f points) across the last %d days.",
			earlier, later, increase, LookbackDays),
	}, true
}

// RefundRate is the percentage of txs that were refunded in full or in part.
func RefundRate(txs []models.Transaction) float64 {
	if len(txs) == 0 {
		return 0
	}
	refunded := 0
	for _, tx := range txs {
		if tx.Status == models.TransactionStatusRefunded || tx.RefundStatus == models.RefundStatusPartial || tx.RefundStatus == models.RefundStatusFull {
			refunded++
		}
	}
	return float64(refunded) / float64(len(txs)) * 100
}

// DetectSettlementDelay compares average settlement time with the SLA.
func DetectSettlementDelay(latencies []float64) (Detection, bool) {
	if len(latencies) < MinSettledTransactions {
		return Detection{}, false
	}
	avg := round2(aggregate.Mean(latencies))
	if avg <= SettlementSLADays {
		return Detection{}, false
	}
	worst := 0.0
	for _, d := range latencies {
		worst = math.Max(worst, d)
	}

	severity := models.SeverityLow
	switch {
	case worst > 7:
		severity = models.SeverityCritical
	case avg > 5:
		severity = models.SeverityMedium
	}
	return Detection{
		Type:           models.AlertTypeSettlementDelay,
		Severity:       severity,
		MetricValue:    avg,
		ThresholdValue: SettlementSLADays,
		Description: fmt.Sprintf("Average settlement time over the last %d days is %.2f days (slowest %.2f) against a %.0f-day SLA.",
			LookbackDays, avg, worst, SettlementSLADays),
	}, true
}

// DetectScoreDrop compares the latest score with the one before it.
func DetectScoreDrop(previous, latest int) (Detection, bool) {
	drop := float64(previous - latest)
	if drop <= ScoreDropThreshold {
		return Detection{}, false
	}
	return Detection{
		Type:           models.AlertTypeScoreDrop,
		Severity:       band(drop, 30, 20),
		MetricValue:    drop,
		ThresholdValue: ScoreDropThreshold,
		Description:    fmt.Sprintf("Credit score fell %d points, from %d to %d.", previous-latest, previous, latest),
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
