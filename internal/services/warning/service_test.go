package warning

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "paybaba/internal/errors"
	"paybaba/internal/models"
	"paybaba/internal/services/aggregate"
	"paybaba/internal/services/explain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	rows []models.DailyAggregate
	txs  []models.Transaction
}

func (s *stubSource) DailyAggregates(_ context.Context, _ string, r models.DateRange) ([]models.DailyAggregate, error) {
	var out []models.DailyAggregate
	for _, row := range s.rows {
		if r.Contains(row.Day) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubSource) Transactions(context.Context, string, models.DateRange, models.TransactionFilter) ([]models.Transaction, error) {
	return s.txs, nil
}

// rowStore backs a real aggregate.Aggregator with stored day rows.
type rowStore struct {
	rows []models.DailyAggregate
}

func (s *rowStore) GetWindowAggregates(_ context.Context, _ string, r models.DateRange) ([]models.DailyAggregate, error) {
	var out []models.DailyAggregate
	for _, row := range s.rows {
		if r.Contains(row.Day) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *rowStore) GetTransactions(context.Context, string, models.DateRange, models.TransactionFilter) ([]models.Transaction, error) {
	return nil, nil
}

type MockSnapshots struct {
	mock.Mock
}

func (m *MockSnapshots) GetLatestSnapshots(ctx context.Context, merchantID string, n int) ([]models.CreditScoreSnapshot, error) {
	args := m.Called(ctx, merchantID, n)
	snapshots, _ := args.Get(0).([]models.CreditScoreSnapshot)
	return snapshots, args.Error(1)
}

type MockAlerts struct {
	mock.Mock
}

func (m *MockAlerts) SaveAlert(ctx context.Context, alert *models.EarlyWarningAlert) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *MockAlerts) GetUnresolvedAlerts(ctx context.Context, merchantID string) ([]models.EarlyWarningAlert, error) {
	args := m.Called(ctx, merchantID)
	alerts, _ := args.Get(0).([]models.EarlyWarningAlert)
	return alerts, args.Error(1)
}

func (m *MockAlerts) ResolveAlert(ctx context.Context, merchantID, alertID string, at time.Time) (*models.EarlyWarningAlert, error) {
	args := m.Called(ctx, merchantID, alertID, at)
	alert, _ := args.Get(0).(*models.EarlyWarningAlert)
	return alert, args.Error(1)
}

type slowGenerator struct{}

func (slowGenerator) ExplainScore(ctx context.Context, _ explain.ScoreContext) (explain.ScoreExplanation, error) {
	<-ctx.Done()
	return explain.ScoreExplanation{}, ctx.Err()
}

func (slowGenerator) ExplainAnomaly(ctx context.Context, _ explain.AnomalyContext) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

var now = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

// droppingRows has 20 historical days at 1,000,000 / 10 transactions and 10
// recent days at recentRevenue / 10 transactions.
func droppingRows(recentRevenue int64) []models.DailyAggregate {
	last := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	var rows []models.DailyAggregate
	for i := 0; i < 30; i++ {
		revenue := int64(1_000_000)
		if i < RecentDays {
			revenue = recentRevenue
		}
		rows = append(rows, models.DailyAggregate{
			MerchantID:       "m-1",
			Day:              last.AddDate(0, 0, -i),
			TotalAmount:      decimal.NewFromInt(revenue),
			TransactionCount: 10,
		})
	}
	return rows
}

func TestService_Detect(t *testing.T) {
	snapshots := new(MockSnapshots)
	snapshots.On("GetLatestSnapshots", mock.Anything, "m-1", 2).Return([]models.CreditScoreSnapshot{{Score: 50}, {Score: 85}}, nil)

	svc := NewService(&stubSource{rows: droppingRows(600_000)}, snapshots, new(MockAlerts), nil, nil, time.UTC)
	detections, err := svc.Detect(context.Background(), "m-1", now)
	require.NoError(t, err)
	require.Len(t, detections, 2)

	assert.Equal(t, models.AlertTypeRevenueDrop, detections[0].Type)
	assert.Equal(t, models.SeverityMedium, detections[0].Severity)
	assert.Equal(t, 40.0, detections[0].MetricValue)
	assert.Equal(t, models.AlertTypeScoreDrop, detections[1].Type)
	assert.Equal(t, models.SeverityCritical, detections[1].Severity)
}

func TestService_DetectMissingDaysCountAsZero(t *testing.T) {
	snapshots := new(MockSnapshots)
	snapshots.On("GetLatestSnapshots", mock.Anything, "m-1", 2).Return(nil, nil)

	// Only the 20 historical days have rows; the last 10 days had no sales.
	rows := droppingRows(0)[RecentDays:]
	svc := NewService(&stubSource{rows: rows}, snapshots, new(MockAlerts), nil, nil, time.UTC)
	detections, err := svc.Detect(context.Background(), "m-1", now)
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, models.AlertTypeRevenueDrop, detections[0].Type)
	assert.Equal(t, 100.0, detections[0].MetricValue)
	assert.Equal(t, models.AlertTypeTransactionDrop, detections[1].Type)
}

func TestService_DetectIgnoresEmptyDayRows(t *testing.T) {
	snapshots := new(MockSnapshots)
	snapshots.On("GetLatestSnapshots", mock.Anything, "m-1", 2).Return(nil, nil)

	last := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	activeDays := map[int]bool{15: true, 20: true, 25: true}
	var active, padded []models.DailyAggregate
	for i := 0; i < LookbackDays; i++ {
		row := models.DailyAggregate{MerchantID: "m-1", Day: last.AddDate(0, 0, -i), TotalAmount: decimal.Zero}
		if activeDays[i] {
			row.TotalAmount = decimal.NewFromInt(1_000_000)
			row.TransactionCount = 10
			active = append(active, row)
		}
		padded = append(padded, row)
	}

	for name, rows := range map[string][]models.DailyAggregate{"active only": active, "with empty days": padded} {
		t.Run(name, func(t *testing.T) {
			source := aggregate.NewAggregator(&rowStore{rows: rows}, time.UTC)
			svc := NewService(source, snapshots, new(MockAlerts), nil, nil, time.UTC)
			detections, err := svc.Detect(context.Background(), "m-1", now)
			require.NoError(t, err)
			assert.Empty(t, detections)
		})
	}
}

func TestService_EvaluateSuppressesOpenAlertTypes(t *testing.T) {
	snapshots := new(MockSnapshots)
	alerts := new(MockAlerts)
	snapshots.On("GetLatestSnapshots", mock.Anything, "m-1", 2).Return([]models.CreditScoreSnapshot{{Score: 50}, {Score: 85}}, nil)
	alerts.On("GetUnresolvedAlerts", mock.Anything, "m-1").Return([]models.EarlyWarningAlert{{Type: models.AlertTypeScoreDrop}}, nil)
	alerts.On("SaveAlert", mock.Anything, mock.MatchedBy(func(a *models.EarlyWarningAlert) bool {
		return a.Type == models.AlertTypeRevenueDrop
	})).Return(nil).Once()

	guard := explain.NewGuard(slowGenerator{}, 10*time.Millisecond, nil)
	svc := NewService(&stubSource{rows: droppingRows(400_000)}, snapshots, alerts, guard, nil, time.UTC)

	created, err := svc.Evaluate(context.Background(), "m-1", now)
	require.NoError(t, err)
	require.Len(t, created, 1)

	alert := created[0]
	assert.Equal(t, models.AlertTypeRevenueDrop, alert.Type)
	assert.Equal(t, models.SeverityCritical, alert.Severity)
	assert.Equal(t, 60.0, alert.MetricValue)
	assert.Equal(t, RevenueDropThreshold, alert.ThresholdValue)
	assert.Equal(t, explain.FallbackAnomaly, alert.Annotation)
	assert.Len(t, alert.AlertID, 36)
	assert.False(t, alert.Resolved)
	assert.Equal(t, now, alert.DetectedAt)
	alerts.AssertExpectations(t)
}

func TestService_EvaluateNothingDetected(t *testing.T) {
	snapshots := new(MockSnapshots)
	alerts := new(MockAlerts)
	snapshots.On("GetLatestSnapshots", mock.Anything, "m-1", 2).Return(nil, nil)

	svc := NewService(&stubSource{rows: droppingRows(1_000_000)}, snapshots, alerts, nil, nil, time.UTC)
	created, err := svc.Evaluate(context.Background(), "m-1", now)
	require.NoError(t, err)
	assert.Empty(t, created)
	alerts.AssertNotCalled(t, "GetUnresolvedAlerts", mock.Anything, mock.Anything)
}

func TestService_EvaluateSaveFailure(t *testing.T) {
	snapshots := new(MockSnapshots)
	alerts := new(MockAlerts)
	snapshots.On("GetLatestSnapshots", mock.Anything, "m-1", 2).Return(nil, nil)
	alerts.On("GetUnresolvedAlerts", mock.Anything, "m-1").Return(nil, nil)
	alerts.On("SaveAlert", mock.Anything, mock.Anything).Return(errors.New("db down"))

	svc := NewService(&stubSource{rows: droppingRows(400_000)}, snapshots, alerts, nil, nil, time.UTC)
	_, err := svc.Evaluate(context.Background(), "m-1", now)
	assert.Error(t, err)
}

func TestService_Resolve(t *testing.T) {
	alerts := new(MockAlerts)
	resolvedAt := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	alerts.On("ResolveAlert", mock.Anything, "m-1", "a-1", resolvedAt).
		Return(&models.EarlyWarningAlert{AlertID: "a-1", MerchantID: "m-1", Resolved: true, ResolvedAt: &resolvedAt}, nil)
	alerts.On("ResolveAlert", mock.Anything, "m-1", "missing", resolvedAt).Return(nil, apperrors.ErrNotFound)

	svc := NewService(&stubSource{}, new(MockSnapshots), alerts, nil, nil, nil)
	svc.now = func() time.Time { return resolvedAt }

	alert, err := svc.Resolve(context.Background(), "m-1", "a-1")
	require.NoError(t, err)
	assert.True(t, alert.Resolved)

	_, err = svc.Resolve(context.Background(), "m-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
