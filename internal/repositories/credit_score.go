package repositories

import (
	"context"

	"paybaba/internal/models"
)

// SaveScoreSnapshot appends a snapshot; snapshots are never updated.
func (s *Store) SaveScoreSnapshot(ctx context.Context, snapshot *models.CreditScoreSnapshot) error {
	return s.db.WithContext(ctx).Create(snapshot).Error
}

// GetLatestSnapshots returns up to n snapshots, newest first.
func (s *Store) GetLatestSnapshots(ctx context.Context, merchantID string, n int) ([]models.CreditScoreSnapshot, error) {
	var snapshots []models.CreditScoreSnapshot
	err := s.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("calculated_at DESC, id DESC").
		Limit(n).
		Find(&snapshots).Error
	return snapshots, err
}
