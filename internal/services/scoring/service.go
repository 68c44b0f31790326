package scoring

import (
	"context"
	"fmt"
	"time"

	"paybaba/internal/models"
	"paybaba/internal/services/aggregate"
	"paybaba/internal/services/explain"
	"paybaba/internal/validation"

	"github.com/sirupsen/logrus"
)

// Calculation is the outcome of Service.Calculate. Snapshot is nil when the
// result is insufficient data.
type Calculation struct {
	Result   Result
	Snapshot *models.CreditScoreSnapshot
}

type Service struct {
	source    Source
	store     SnapshotStore
	cache     SnapshotCache
	explainer explain.Explainer
	metrics   Metrics
	loc       *time.Location
	log       *logrus.Entry
}

// NewService wires the scoring pipeline. cache may be nil; a nil explainer
// uses the fallback text.
func NewService(source Source, store SnapshotStore, cache SnapshotCache, explainer explain.Explainer, metrics Metrics, loc *time.Location) *Service {
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
		store:     store,
		cache:     cache,
		explainer: explainer,
		metrics:   metrics,
		loc:       loc,
		log:       logrus.WithField("component", "scoring"),
	}
}

// Calculate scores the merchant over the trailing window ending on the day of
// now and persists the snapshot. Insufficient data persists nothing.
func (s *Service) Calculate(ctx context.Context, merchantID string, now time.Time) (*Calculation, error) {
	in, err := s.loadInputs(ctx, merchantID, now)
	if err != nil {
		return nil, err
	}

	result, err := Compute(in)
	if err != nil {
		return nil, err
	}
	logger := s.log.WithField("merchant_id", merchantID)
	if !result.Scored() {
		s.metrics.ObserveScore(string(StatusInsufficientData))
		logger.Info("insufficient data for credit score")
		return &Calculation{Result: result}, nil
	}

	snapshot := &models.CreditScoreSnapshot{
		MerchantID:       merchantID,
		CalculatedAt:     now.UTC(),
		Score:            result.Score,
		RiskBand:         result.RiskBand,
		MinCreditLimit:   result.MinCreditLimit,
		MaxCreditLimit:   result.MaxCreditLimit,
		VolumeScore:      result.Components.Volume,
		ConsistencyScore: result.Components.Consistency,
		GrowthScore:      result.Components.Growth,
		RefundScore:      result.Components.Refund,
		SettlementScore:  result.Components.Settlement,
		Metrics:          result.Metrics,
	}
	text := s.explainer.Score(ctx, explain.ScoreContext{
		MerchantID:       merchantID,
		Score:            snapshot.Score,
		RiskBand:         snapshot.RiskBand,
		VolumeScore:      snapshot.VolumeScore,
		ConsistencyScore: snapshot.ConsistencyScore,
		GrowthScore:      snapshot.GrowthScore,
		RefundScore:      snapshot.RefundScore,
		SettlementScore:  snapshot.SettlementScore,
		Metrics:          snapshot.Metrics,
	})
	snapshot.Explanation = text.Explanation
	snapshot.Recommendation = text.Recommendation

	if err := s.store.SaveScoreSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save credit score: %w", err)
	}
	s.cacheLatest(ctx, snapshot)
	s.metrics.ObserveScore(string(snapshot.RiskBand))

	logger.WithFields(logrus.Fields{
		"score":     snapshot.Score,
		"risk_band": snapshot.RiskBand,
	}).Info("credit score calculated")
	return &Calculation{Result: result, Snapshot: snapshot}, nil
}

// Latest returns the most recent snapshot, reading through the cache.
// ErrNoScore means none has been computed yet.
func (s *Service) Latest(ctx context.Context, merchantID string) (*models.CreditScoreSnapshot, error) {
	if s.cache != nil {
		cached, err := s.cache.GetLatestScore(ctx, merchantID)
		if err != nil {
			s.log.WithError(err).WithField("merchant_id", merchantID).Warn("score cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	snapshots, err := s.store.GetLatestSnapshots(ctx, merchantID, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to load credit score: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, ErrNoScore
	}
	latest := &snapshots[0]
	s.cacheLatest(ctx, latest)
	return latest, nil
}

// History returns up to limit snapshots, newest first.
func (s *Service) History(ctx context.Context, merchantID string, limit int) ([]models.CreditScoreSnapshot, error) {
	if limit <= 0 {
		limit = validation.DefaultHistoryLimit
	}
	if limit > validation.MaxHistoryLimit {
		limit = validation.MaxHistoryLimit
	}
	snapshots, err := s.store.GetLatestSnapshots(ctx, merchantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load credit score history: %w", err)
	}
	return snapshots, nil
}

func (s *Service) loadInputs(ctx context.Context, merchantID string, now time.Time) (Inputs, error) {
	window := aggregate.TrailingDays(now, s.loc, WindowDays)
	rows, err := s.source.DailyAggregates(ctx, merchantID, window)
	if err != nil {
		return Inputs{}, err
	}
	totals := aggregate.Sum(rows)

	current := aggregate.TrailingDays(now, s.loc, GrowthWindowDays)
	previous := models.DateRange{Start: current.Start.AddDate(0, 0, -GrowthWindowDays), End: current.Start}
	var revCurrent, revPrevious float64
	for _, row := range rows {
		switch {
		case current.Contains(row.Day):
			revCurrent += row.TotalAmount.InexactFloat64()
		case previous.Contains(row.Day):
			revPrevious += row.TotalAmount.InexactFloat64()
		}
	}

	settled, err := s.source.Transactions(ctx, merchantID, window, models.TransactionFilter{SettledOnly: true})
	if err != nil {
		return Inputs{}, err
	}

	return Inputs{
		TransactionCount: totals.Count,
		RefundCount:      totals.RefundCount,
		TotalRevenue:     totals.TotalAmount.InexactFloat64(),
		WindowMonths:     float64(WindowDays) / 30,
		DailyRevenue:     aggregate.DailyRevenueSeries(rows),
		RevenueCurrent:   revCurrent,
		RevenuePrevious:  revPrevious,
		SettlementDays:   aggregate.SettlementLatencyDays(settled),
	}, nil
}

func (s *Service) cacheLatest(ctx context.Context, snapshot *models.CreditScoreSnapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLatestScore(ctx, snapshot); err != nil {
		s.log.WithError(err).WithField("merchant_id", snapshot.MerchantID).Warn("score cache write failed")
	}
}
