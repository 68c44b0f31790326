package aggregate

import (
	"context"

	"paybaba/internal/models"
)

// Store is the read side of the persistence collaborator. Ranges are
// half-open. Aggregate ranges are calendar days, transaction ranges are
// instants.
type Store interface {
	GetWindowAggregates(ctx context.Context, merchantID string, r models.DateRange) ([]models.DailyAggregate, error)
	GetTransactions(ctx context.Context, merchantID string, r models.DateRange, filter models.TransactionFilter) ([]models.Transaction, error)
}
