package warning

import (
	"testing"
	"time"

	"paybaba/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRevenueDrop(t *testing.T) {
	tests := []struct {
		name      string
		recent    float64
		wantAlert bool
		want      models.Severity
	}{
		{name: "40% drop", recent: 600_000, wantAlert: true, want: models.SeverityMedium},
		{name: "60% drop", recent: 400_000, wantAlert: true, want: models.SeverityCritical},
		{name: "20% drop", recent: 800_000, wantAlert: false},
		{name: "35% drop", recent: 650_000, wantAlert: true, want: models.SeverityLow},
		{name: "exactly threshold", recent: 700_000, wantAlert: false},
		{name: "growth", recent: 1_200_000, wantAlert: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := DetectRevenueDrop(tt.recent, 1_000_000, 30)
			require.Equal(t, tt.wantAlert, ok)
			if !ok {
				return
			}
			assert.Equal(t, models.AlertTypeRevenueDrop, d.Type)
			assert.Equal(t, tt.want, d.Severity)
			assert.Equal(t, RevenueDropThreshold, d.ThresholdValue)
			assert.NotEmpty(t, d.Description)
		})
	}
}

func TestDetectRevenueDrop_InsufficientSamples(t *testing.T) {
	_, ok := DetectRevenueDrop(0, 1_000_000, MinDayRows-1)
	assert.False(t, ok)
	_, ok = DetectRevenueDrop(0, 0, 30)
	assert.False(t, ok)
}

func TestDetectScoreDrop(t *testing.T) {
	d, ok := DetectScoreDrop(85, 68)
	require.True(t, ok)
	assert.Equal(t, models.SeverityLow, d.Severity)
	assert.Equal(t, 17.0, d.MetricValue)

	d, ok = DetectScoreDrop(85, 50)
	require.True(t, ok)
	assert.Equal(t, models.SeverityCritical, d.Severity)

	d, ok = DetectScoreDrop(85, 62)
	require.True(t, ok)
	assert.Equal(t, models.SeverityMedium, d.Severity)

	_, ok = DetectScoreDrop(85, 75)
	assert.False(t, ok)
	_, ok = DetectScoreDrop(60, 90)
	assert.False(t, ok)
}

func TestDetectScoreDrop_BandEdges(t *testing.T) {
	tests := []struct {
		current int
		want    models.Severity
	}{
		{current: 49, want: models.SeverityCritical},
		{current: 50, want: models.SeverityMedium},
		{current: 59, want: models.SeverityMedium},
		{current: 60, want: models.SeverityLow},
	}
	for _, tt := range tests {
		d, ok := DetectScoreDrop(80, tt.current)
		require.True(t, ok)
		assert.Equal(t, tt.want, d.Severity, "drop %d", 80-tt.current)
	}

	_, ok := DetectScoreDrop(80, 65)
	assert.False(t, ok)
}

func TestDetectTransactionDrop(t *testing.T) {
	d, ok := DetectTransactionDrop(7, 10, 20)
	require.True(t, ok)
	assert.Equal(t, models.SeverityLow, d.Severity)
	assert.Equal(t, 30.0, d.MetricValue)

	d, ok = DetectTransactionDrop(4, 10, 20)
	require.True(t, ok)
	assert.Equal(t, models.SeverityCritical, d.Severity)

	_, ok = DetectTransactionDrop(8, 10, 20)
	assert.False(t, ok)
}

func refundTxs(n, refundedEarly, refundedLate int) []models.Transaction {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	txs := make([]models.Transaction, n)
	half := n / 2
	for i := range txs {
		txs[i] = models.Transaction{
			TransactionAt: start.Add(time.Duration(i) * time.Hour),
			Status:        models.TransactionStatusSuccess,
			RefundStatus:  models.RefundStatusNone,
		}
	}
	for i := 0; i < refundedEarly; i++ {
		txs[i].Status = models.TransactionStatusRefunded
	}
	for i := 0; i < refundedLate; i++ {
		txs[half+i].Status = models.TransactionStatusRefunded
	}
	// Reverse so detection cannot rely on input order.
	for i, j := 0, len(txs)-1; i < j; i, j = i+1, j-1 {
		txs[i], txs[j] = txs[j], txs[i]
	}
	return txs
}

func TestDetectRefundSpike(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		early     int
		late      int
		wantAlert bool
		want      models.Severity
	}{
		{name: "+6pp", early: 1, late: 4, wantAlert: true, want: models.SeverityLow},
		{name: "+10pp", early: 0, late: 5, wantAlert: true, want: models.SeverityLow},
		{name: "+12pp", early: 0, late: 6, wantAlert: true, want: models.SeverityMedium},
		{name: "+20pp", early: 0, late: 10, wantAlert: true, want: models.SeverityCritical},
		{name: "+15pp", n: 200, early: 0, late: 15, wantAlert: true, want: models.SeverityMedium},
		{name: "+16pp", n: 200, early: 0, late: 16, wantAlert: true, want: models.SeverityCritical},
		{name: "+11pp", n: 200, early: 0, late: 11, wantAlert: true, want: models.SeverityMedium},
		{name: "+4pp", early: 1, late: 3, wantAlert: false},
		{name: "improving", early: 5, late: 0, wantAlert: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 100 transactions by default, 50 per half, so each refund is 2pp.
			n := tt.n
			if n == 0 {
				n = 100
			}
			d, ok := DetectRefundSpike(refundTxs(n, tt.early, tt.late))
			require.Equal(t, tt.wantAlert, ok)
			if ok {
				assert.Equal(t, tt.want, d.Severity)
			}
		})
	}

	_, ok := DetectRefundSpike(refundTxs(MinRefundTransactions-2, 0, 20))
	assert.False(t, ok)
}

func TestDetectSettlementDelay(t *testing.T) {
	repeat := func(v float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	_, ok := DetectSettlementDelay(repeat(2, 10))
	assert.False(t, ok)

	d, ok := DetectSettlementDelay(repeat(4, 10))
	require.True(t, ok)
	assert.Equal(t, models.SeverityLow, d.Severity)
	assert.Equal(t, 4.0, d.MetricValue)

	d, ok = DetectSettlementDelay(repeat(6, 10))
	require.True(t, ok)
	assert.Equal(t, models.SeverityMedium, d.Severity)

	d, ok = DetectSettlementDelay(append(repeat(3.5, 9), 8))
	require.True(t, ok)
	assert.Equal(t, models.SeverityCritical, d.Severity)

	_, ok = DetectSettlementDelay(repeat(9, MinSettledTransactions-1))
	assert.False(t, ok)
}
