package explain

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Guard adapts a TextGenerator to Explainer by bounding every call with a
// timeout and absorbing failures.
type Guard struct {
	gen     TextGenerator
	timeout time.Duration
	metrics Metrics
	log     *logrus.Entry
}

// NewGuard wraps gen. A nil gen behaves like Noop; a non-positive timeout uses
// DefaultTimeout.
func NewGuard(gen TextGenerator, timeout time.Duration, metrics Metrics) *Guard {
	if gen == nil {
		gen = Noop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Guard{
		gen:     gen,
		timeout: timeout,
		metrics: metrics,
		log:     logrus.WithField("component", "explain"),
	}
}

func (g *Guard) Score(ctx context.Context, sc ScoreContext) ScoreExplanation {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.gen.ExplainScore(ctx, sc)
	if err != nil {
		g.fallback("score", sc.MerchantID, err)
		return ScoreExplanation{Explanation: FallbackScoreExplanation, Recommendation: FallbackScoreRecommendation}
	}
	if strings.TrimSpace(out.Explanation) == "" {
		out.Explanation = FallbackScoreExplanation
	}
	if strings.TrimSpace(out.Recommendation) == "" {
		out.Recommendation = FallbackScoreRecommendation
	}
	return out
}

func (g *Guard) Anomaly(ctx context.Context, ac AnomalyContext) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.gen.ExplainAnomaly(ctx, ac)
	if err != nil {
		g.fallback("anomaly", ac.MerchantID, err)
		return FallbackAnomaly
	}
	if strings.TrimSpace(text) == "" {
		return FallbackAnomaly
	}
	return text
}

func (g *Guard) fallback(kind, merchantID string, err error) {
	g.metrics.ObserveTextFallback(kind)
	g.log.WithFields(logrus.Fields{
		"kind":        kind,
		"merchant_id": merchantID,
	}).WithError(err).Warn("text generation failed, using fallback")
}
