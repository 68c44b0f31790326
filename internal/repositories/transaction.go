package repositories

import (
	"context"

	"paybaba/internal/models"
)

func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

// UpdateTransaction never touches the amount.
func (s *Store) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).
		Model(tx).
		Select("status", "refund_status", "settled_at", "gateway_payload").
		Updates(tx).Error
}

func (s *Store) GetTransaction(ctx context.Context, merchantID, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("id = ? AND merchant_id = ?", id, merchantID).
		First(&tx).Error
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return &tx, nil
}

func (s *Store) GetTransactionByTradeNo(ctx context.Context, merchantTradeNo string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).
		Where("merchant_trade_no = ?", merchantTradeNo).
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		return nil, notFound(err, "transaction")
	}
	return &tx, nil
}

// GetTransactions returns the merchant's transactions with TransactionAt in r,
// oldest first.
func (s *Store) GetTransactions(ctx context.Context, merchantID string, r models.DateRange, filter models.TransactionFilter) ([]models.Transaction, error) {
	q := s.db.WithContext(ctx).
		Where("merchant_id = ? AND transaction_at >= ? AND transaction_at < ?", merchantID, r.Start, r.End)
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.SettledOnly {
		q = q.Where("settled_at IS NOT NULL")
	}

	var txs []models.Transaction
	if err := q.Order("transaction_at ASC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
