package aggregate

import (
	"math"
	"time"

	"paybaba/internal/models"

	"github.com/montanaflynn/stats"
)

// Mean returns 0 for an empty series.
func Mean(series []float64) float64 {
	m, err := stats.Mean(series)
	if err != nil {
		return 0
	}
	return m
}

// CoefficientOfVariation is the population standard deviation over the mean,
// times 100. A zero mean or fewer than two points count as zero volatility.
func CoefficientOfVariation(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	mean := Mean(series)
	if mean == 0 {
		return 0
	}
	sd, err := stats.StandardDeviationPopulation(series)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd / math.Abs(mean) * 100
}

// SettlementLatencyDays returns the settlement delay, in fractional days, of
// every transaction that has been settled. Unsettled transactions are skipped,
// so the result may be empty; callers must treat that as "no data".
func SettlementLatencyDays(txs []models.Transaction) []float64 {
	out := make([]float64, 0, len(txs))
	for _, tx := range txs {
		if tx.SettledAt == nil {
			continue
		}
		d := tx.SettledAt.Sub(tx.TransactionAt)
		if d < 0 {
			d = 0
		}
		out = append(out, d.Hours()/24)
	}
	return out
}

// DailyRevenueSeries returns each row's revenue in day order.
func DailyRevenueSeries(aggs []models.DailyAggregate) []float64 {
	out := make([]float64, len(aggs))
	for i, a := range aggs {
		out[i] = a.TotalAmount.InexactFloat64()
	}
	return out
}

// DailyCountSeries returns each row's transaction count in day order.
func DailyCountSeries(aggs []models.DailyAggregate) []float64 {
	out := make([]float64, len(aggs))
	for i, a := range aggs {
		out[i] = float64(a.TransactionCount)
	}
	return out
}

// SplitAt partitions day rows into those before cut and those on or after it.
func SplitAt(aggs []models.DailyAggregate, cut time.Time) (before, after []models.DailyAggregate) {
	for _, a := range aggs {
		if a.Day.Before(cut) {
			before = append(before, a)
		} else {
			after = append(after, a)
		}
	}
	return before, after
}
