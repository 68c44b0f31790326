// Package aggregate rolls transactions up into per-day aggregates and answers
// window queries over them. Both scoring and early warning read through it.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"paybaba/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// WindowStats totals a merchant's activity over a day range.
type WindowStats struct {
	TotalAmount  decimal.Decimal
	Count        int
	SuccessCount int
	FailCount    int
	RefundCount  int
	// DaysObserved is the number of day rows that contributed.
	DaysObserved int
	// FromAggregates is false when the totals were rebuilt from raw transactions.
	FromAggregates bool
}

type Aggregator struct {
	store Store
	loc   *time.Location
	log   *logrus.Entry
}

func NewAggregator(store Store, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		store: store,
		loc:   loc,
		log:   logrus.WithField("component", "aggregate"),
	}
}

func (a *Aggregator) Location() *time.Location { return a.loc }

// WindowStats sums the precomputed daily aggregates in r, or scans raw
// transactions when no aggregate rows exist for the range.
func (a *Aggregator) WindowStats(ctx context.Context, merchantID string, r models.DateRange) (WindowStats, error) {
	aggs, fromAggregates, err := a.dailyRows(ctx, merchantID, r)
	if err != nil {
		return WindowStats{}, err
	}
	out := Sum(aggs)
	out.FromAggregates = fromAggregates
	return out, nil
}

// DailyAggregates returns the active day rows of r in day order, rebuilt
// from raw transactions when none are stored.
func (a *Aggregator) DailyAggregates(ctx context.Context, merchantID string, r models.DateRange) ([]models.DailyAggregate, error) {
	aggs, _, err := a.dailyRows(ctx, merchantID, r)
	return aggs, err
}

// Transactions scans the raw transactions that fall on the days of r.
func (a *Aggregator) Transactions(ctx context.Context, merchantID string, r models.DateRange, filter models.TransactionFilter) ([]models.Transaction, error) {
	if err := validateWindow(merchantID, r); err != nil {
		return nil, err
	}
	txs, err := a.store.GetTransactions(ctx, merchantID, Instants(r, a.loc), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txs, nil
}

func (a *Aggregator) dailyRows(ctx context.Context, merchantID string, r models.DateRange) ([]models.DailyAggregate, bool, error) {
	if err := validateWindow(merchantID, r); err != nil {
		return nil, false, err
	}

	aggs, err := a.store.GetWindowAggregates(ctx, merchantID, r)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load daily aggregates: %w", err)
	}
	aggs = Active(aggs)
	if len(aggs) > 0 {
		sortByDay(aggs)
		return aggs, true, nil
	}

	txs, err := a.Transactions(ctx, merchantID, r, models.TransactionFilter{})
	if err != nil {
		return nil, false, err
	}
	a.log.WithFields(logrus.Fields{
		"merchant_id":  merchantID,
		"start":        r.Start.Format(time.DateOnly),
		"end":          r.End.Format(time.DateOnly),
		"transactions": len(txs),
	}).Debug("no daily aggregates, scanning transactions")

	rebuilt, err := BuildDailyAggregates(merchantID, txs, a.loc)
	if err != nil {
		return nil, false, err
	}
	return rebuilt, false, nil
}

// Active drops rows for days without transactions. Day series are sparse:
// only days with activity are observations.
func Active(aggs []models.DailyAggregate) []models.DailyAggregate {
	out := aggs[:0:0]
	for _, a := range aggs {
		if a.TransactionCount > 0 {
			out = append(out, a)
		}
	}
	return out
}

// Sum totals day rows.
func Sum(aggs []models.DailyAggregate) WindowStats {
	out := WindowStats{TotalAmount: decimal.Zero}
	for _, a := range aggs {
		out.TotalAmount = out.TotalAmount.Add(a.TotalAmount)
		out.Count += a.TransactionCount
		out.SuccessCount += a.SuccessCount
		out.FailCount += a.FailCount
		out.RefundCount += a.RefundCount
	}
	out.DaysObserved = len(aggs)
	return out
}

// BuildDailyAggregates groups transactions by calendar day in loc. Only
// successful transactions add to TotalAmount; every transaction adds to
// TransactionCount. Rows are returned in day order.
func BuildDailyAggregates(merchantID string, txs []models.Transaction, loc *time.Location) ([]models.DailyAggregate, error) {
	byDay := make(map[time.Time]*models.DailyAggregate)
	for _, tx := range txs {
		if tx.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: transaction %s", ErrNegativeAmount, tx.ID)
		}
		day := DayOf(tx.TransactionAt, loc)
		row, ok := byDay[day]
		if !ok {
			row = &models.DailyAggregate{MerchantID: merchantID, Day: day, TotalAmount: decimal.Zero}
			byDay[day] = row
		}
		Accumulate(row, tx)
	}

	out := make([]models.DailyAggregate, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sortByDay(out)
	return out, nil
}

// Accumulate adds one transaction to a day row.
func Accumulate(row *models.DailyAggregate, tx models.Transaction) {
	row.TransactionCount++
	switch tx.Status {
	case models.TransactionStatusSuccess:
		row.SuccessCount++
		row.TotalAmount = row.TotalAmount.Add(tx.Amount)
		if tx.RefundStatus == models.RefundStatusPartial {
			row.RefundCount++
		}
	case models.TransactionStatusFailed:
		row.FailCount++
	case models.TransactionStatusRefunded:
		row.RefundCount++
	}
}

func validateWindow(merchantID string, r models.DateRange) error {
	if strings.TrimSpace(merchantID) == "" {
		return ErrMissingMerchant
	}
	if !r.End.After(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

func sortByDay(aggs []models.DailyAggregate) {
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Day.Before(aggs[j].Day) })
}
