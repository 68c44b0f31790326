package warning

import (
	"context"
	"time"

	"paybaba/internal/models"
)

// Source supplies window data. *aggregate.Aggregator implements it.
type Source interface {
	DailyAggregates(ctx context.Context, merchantID string, r models.DateRange) ([]models.DailyAggregate, error)
	Transactions(ctx context.Context, merchantID string, r models.DateRange, filter models.TransactionFilter) ([]models.Transaction, error)
}

type SnapshotSource interface {
	GetLatestSnapshots(ctx context.Context, merchantID string, n int) ([]models.CreditScoreSnapshot, error)
}

type AlertStore interface {
	SaveAlert(ctx context.Context, alert *models.EarlyWarningAlert) error
	GetUnresolvedAlerts(ctx context.Context, merchantID string) ([]models.EarlyWarningAlert, error)
	// ResolveAlert flips the resolution flag. It fails with errors.ErrNotFound
	// when the merchant has no such alert.
	ResolveAlert(ctx context.Context, merchantID, alertID string, at time.Time) (*models.EarlyWarningAlert, error)
}

type Metrics interface {
	ObserveAlert(alertType, severity string)
}

type NoopMetrics struct{}

func (NoopMetrics) ObserveAlert(string, string) {}
