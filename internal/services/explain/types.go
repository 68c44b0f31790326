package explain

import (
	"context"
	"time"

	"paybaba/internal/models"
)

// Canned output used whenever text generation is unavailable.
const (
	FallbackScoreExplanation    = "Credit score explanation is currently unavailable."
	FallbackScoreRecommendation = "Maintain consistent transaction volume and keep refund rates low to improve your score."
	FallbackAnomaly             = "Automated analysis is currently unavailable for this alert."
)

const DefaultTimeout = 10 * time.Second

// ScoreContext is what the generator sees of a computed score.
type ScoreContext struct {
	MerchantID       string              `json:"merchant_id"`
	Score            int                 `json:"score"`
	RiskBand         models.RiskBand     `json:"risk_band"`
	VolumeScore      float64             `json:"volume_score"`
	ConsistencyScore float64             `json:"consistency_score"`
	GrowthScore      float64             `json:"growth_score"`
	RefundScore      float64             `json:"refund_score"`
	SettlementScore  float64             `json:"settlement_score"`
	Metrics          models.ScoreMetrics `json:"metrics"`
}

type ScoreExplanation struct {
	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`
}

// AnomalyContext is what the generator sees of a detected anomaly.
type AnomalyContext struct {
	MerchantID     string           `json:"merchant_id"`
	Type           models.AlertType `json:"type"`
	Severity       models.Severity  `json:"severity"`
	MetricValue    float64          `json:"metric_value"`
	ThresholdValue float64          `json:"threshold_value"`
	Description    string           `json:"description"`
}

// TextGenerator is the external text-generation collaborator.
type TextGenerator interface {
	ExplainScore(ctx context.Context, sc ScoreContext) (ScoreExplanation, error)
	ExplainAnomaly(ctx context.Context, ac AnomalyContext) (string, error)
}

// Explainer never fails: every error degrades to the canned fallback.
type Explainer interface {
	Score(ctx context.Context, sc ScoreContext) ScoreExplanation
	Anomaly(ctx context.Context, ac AnomalyContext) string
}

type Metrics interface {
	ObserveTextFallback(kind string)
}

type NoopMetrics struct{}

func (NoopMetrics) ObserveTextFallback(string) {}
