package repositories

import (
	"context"
	"time"

	"paybaba/internal/models"
)

func (s *Store) SaveAlert(ctx context.Context, alert *models.EarlyWarningAlert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *Store) GetUnresolvedAlerts(ctx context.Context, merchantID string) ([]models.EarlyWarningAlert, error) {
	var alerts []models.EarlyWarningAlert
	err := s.db.WithContext(ctx).
		Where("merchant_id = ? AND resolved = ?", merchantID, false).
		Order("detected_at DESC").
		Find(&alerts).Error
	return alerts, err
}

// ResolveAlert is idempotent: resolving a resolved alert keeps the first
// resolution time.
func (s *Store) ResolveAlert(ctx context.Context, merchantID, alertID string, at time.Time) (*models.EarlyWarningAlert, error) {
	var alert models.EarlyWarningAlert
	err := s.db.WithContext(ctx).
		Where("alert_id = ? AND merchant_id = ?", alertID, merchantID).
		First(&alert).Error
	if err != nil {
		return nil, notFound(err, "alert")
	}
	if alert.Resolved {
		return &alert, nil
	}

	alert.Resolved = true
	alert.ResolvedAt = &at
	if err := s.db.WithContext(ctx).Model(&alert).Select("resolved", "resolved_at").Updates(&alert).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}
