package warning

import (
	"context"
	"fmt"
	"time"

	"paybaba/internal/models"
	"paybaba/internal/services/aggregate"
	"paybaba/internal/services/explain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service struct {
	source    Source
	snapshots SnapshotSource
	alerts    AlertStore
	explainer explain.Explainer
	metrics   Metrics
	loc       *time.Location
	now       func() time.Time
	log       *logrus.Entry
}

func NewService(source Source, snapshots SnapshotSource, alerts AlertStore, explainer explain.Explainer, metrics Metrics, loc *time.Location) *Service {
	if explainer == nil {
		explainer = explain.NewGuard(nil, 0, nil)
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		source:    source,
		snapshots: snapshots,
		alerts:    alerts,
		explainer: explainer,
		metrics:   metrics,
		loc:       loc,
		now:       time.Now,
		log:       logrus.WithField("component", "warning"),
	}
}

// Detect runs every detector over the lookback window ending on the day of
// now. It has no side effects.
func (s *Service) Detect(ctx context.Context, merchantID string, now time.Time) ([]Detection, error) {
	window := aggregate.TrailingDays(now, s.loc, LookbackDays)
	rows, err := s.source.DailyAggregates(ctx, merchantID, window)
	if err != nil {
		return nil, err
	}
	historical, recent := aggregate.SplitAt(rows, window.End.AddDate(0, 0, -RecentDays))

	txs, err := s.source.Transactions(ctx, merchantID, window, models.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	snapshots, err := s.snapshots.GetLatestSnapshots(ctx, merchantID, MinSnapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}

	var out []Detection
	add := func(d Detection, ok bool) {
		if ok {
			out = append(out, d)
		}
	}

	add(DetectRevenueDrop(
		dailyAverage(aggregate.DailyRevenueSeries(recent), RecentDays),
		dailyAverage(aggregate.DailyRevenueSeries(historical), HistoricalDays),
		len(rows)))
	add(DetectRefundSpike(txs))
	add(DetectSettlementDelay(aggregate.SettlementLatencyDays(txs)))
	add(DetectTransactionDrop(
		dailyAverage(aggregate.DailyCountSeries(recent), RecentDays),
		dailyAverage(aggregate.DailyCountSeries(historical), HistoricalDays),
		len(rows)))
	if len(snapshots) >= MinSnapshots {
		add(DetectScoreDrop(snapshots[1].Score, snapshots[0].Score))
	}
	return out, nil
}

// Evaluate detects anomalies and persists one alert per detection. A
// detection is suppressed while an unresolved alert of the same type exists
// for the merchant. Returns the alerts created.
func (s *Service) Evaluate(ctx context.Context, merchantID string, now time.Time) ([]models.EarlyWarningAlert, error) {
	detections, err := s.Detect(ctx, merchantID, now)
	if err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, nil
	}

	open, err := s.alerts.GetUnresolvedAlerts(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unresolved alerts: %w", err)
	}
	active := make(map[models.AlertType]bool, len(open))
	for _, a := range open {
		active[a.Type] = true
	}

	logger := s.log.WithField("merchant_id", merchantID)
	var created []models.EarlyWarningAlert
	for _, d := range detections {
		if active[d.Type] {
			logger.WithField("type", d.Type).Debug("unresolved alert already open, skipping")
			continue
		}

		alert := &models.EarlyWarningAlert{
			AlertID:        uuid.NewString(),
			MerchantID:     merchantID,
			Type:           d.Type,
			Severity:       d.Severity,
			MetricValue:    d.MetricValue,
			ThresholdValue: d.ThresholdValue,
			Description:    d.Description,
			DetectedAt:     now.UTC(),
		}
		alert.Annotation = s.explainer.Anomaly(ctx, explain.AnomalyContext{
			MerchantID:     merchantID,
			Type:           d.Type,
			Severity:       d.Severity,
			MetricValue:    d.MetricValue,
			ThresholdValue: d.ThresholdValue,
			Description:    d.Description,
		})

		if err := s.alerts.SaveAlert(ctx, alert); err != nil {
			return created, fmt.Errorf("failed to save %s alert: %w", d.Type, err)
		}
		s.metrics.ObserveAlert(string(d.Type), string(d.Severity))
		logger.WithFields(logrus.Fields{
			"type":     d.Type,
			"severity": d.Severity,
			"metric":   d.MetricValue,
		}).Warn("early warning raised")
		created = append(created, *alert)
	}
	return created, nil
}

func (s *Service) Unresolved(ctx context.Context, merchantID string) ([]models.EarlyWarningAlert, error) {
	alerts, err := s.alerts.GetUnresolvedAlerts(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unresolved alerts: %w", err)
	}
	return alerts, nil
}

// Resolve marks an alert resolved. It is the only way an alert is resolved.
func (s *Service) Resolve(ctx context.Context, merchantID, alertID string) (*models.EarlyWarningAlert, error) {
	alert, err := s.alerts.ResolveAlert(ctx, merchantID, alertID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"alert_id":    alertID,
		"merchant_id": merchantID,
	}).Info("alert resolved")
	return alert, nil
}

// dailyAverage spreads a window's total over its full length in days, so days
// without any activity count as zero.
func dailyAverage(series []float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	total := 0.0
	for _, v := range series {
		total += v
	}
	return total / float64(days)
}
