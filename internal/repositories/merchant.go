package repositories

import (
	"context"

	"paybaba/internal/models"
)

// ActiveMerchantIDs lists merchants the scheduled jobs should evaluate.
func (s *Store) ActiveMerchantIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Where("status = ?", models.MerchantStatusActive).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// EnsureMerchant creates the merchant on first sight so that scheduled jobs
// pick it up.
func (s *Store) EnsureMerchant(ctx context.Context, id string) error {
	m := models.Merchant{ID: id, BusinessName: id, Status: models.MerchantStatusActive}
	return s.db.WithContext(ctx).Where(models.Merchant{ID: id}).FirstOrCreate(&m).Error
}
