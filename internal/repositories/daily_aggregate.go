package repositories

import (
	"context"

	"paybaba/internal/models"

	"gorm.io/gorm/clause"
)

// GetWindowAggregates returns the merchant's day rows in r, in day order.
func (s *Store) GetWindowAggregates(ctx context.Context, merchantID string, r models.DateRange) ([]models.DailyAggregate, error) {
	var aggs []models.DailyAggregate
	err := s.db.WithContext(ctx).
		Where("merchant_id = ? AND day >= ? AND day < ?", merchantID, r.Start, r.End).
		Order("day ASC").
		Find(&aggs).Error
	return aggs, err
}

// UpsertDailyAggregate replaces the row for (merchant, day).
func (s *Store) UpsertDailyAggregate(ctx context.Context, agg *models.DailyAggregate) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "merchant_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_amount", "transaction_count", "success_count", "fail_count", "refund_count", "updated_at",
			}),
		}).
		Create(agg).Error
}

// DeleteDailyAggregates removes the merchant's day rows in r.
func (s *Store) DeleteDailyAggregates(ctx context.Context, merchantID string, r models.DateRange) error {
	return s.db.WithContext(ctx).
		Where("merchant_id = ? AND day >= ? AND day < ?", merchantID, r.Start, r.End).
		Delete(&models.DailyAggregate{}).Error
}
