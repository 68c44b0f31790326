package scoring

import (
	"context"

	"paybaba/internal/models"
)

// Source supplies window data. *aggregate.Aggregator implements it.
type Source interface {
	DailyAggregates(ctx context.Context, merchantID string, r models.DateRange) ([]models.DailyAggregate, error)
	Transactions(ctx context.Context, merchantID string, r models.DateRange, filter models.TransactionFilter) ([]models.Transaction, error)
}

type SnapshotStore interface {
	SaveScoreSnapshot(ctx context.Context, snapshot *models.CreditScoreSnapshot) error
	// GetLatestSnapshots returns up to n snapshots, newest first.
	GetLatestSnapshots(ctx context.Context, merchantID string, n int) ([]models.CreditScoreSnapshot, error)
}

// SnapshotCache holds the latest snapshot per merchant. A miss is (nil, nil).
type SnapshotCache interface {
	GetLatestScore(ctx context.Context, merchantID string) (*models.CreditScoreSnapshot, error)
	SetLatestScore(ctx context.Context, snapshot *models.CreditScoreSnapshot) error
}

type Metrics interface {
	ObserveScore(outcome string)
}

type NoopMetrics struct{}

func (NoopMetrics) ObserveScore(string) {}
