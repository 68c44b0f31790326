package transaction

import (
	"context"

	"paybaba/internal/models"
)

// Store persists transactions and their daily aggregates.
type Store interface {
	// RunInTx runs fn against a store bound to a single database transaction.
	RunInTx(ctx context.Context, fn func(Store) error) error

	// EnsureMerchant registers a merchant the first time it records a
	// transaction. Existing merchants are left untouched.
	EnsureMerchant(ctx context.Context, merchantID string) error
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	// UpdateTransaction writes the mutable lifecycle fields only: status,
	// refund status, settlement time and gateway payload.
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	// GetTransaction fails with errors.ErrNotFound when the merchant has no
	// such transaction.
	GetTransaction(ctx context.Context, merchantID, id string) (*models.Transaction, error)
	GetTransactionByTradeNo(ctx context.Context, merchantTradeNo string) (*models.Transaction, error)
	GetTransactions(ctx context.Context, merchantID string, r models.DateRange, filter models.TransactionFilter) ([]models.Transaction, error)

	UpsertDailyAggregate(ctx context.Context, agg *models.DailyAggregate) error
	// DeleteDailyAggregates removes the merchant's day rows in r.
	DeleteDailyAggregates(ctx context.Context, merchantID string, r models.DateRange) error
}
