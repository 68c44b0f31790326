package explain

import "context"

// Noop is used when no generator is configured. It always answers with the
// fallback text.
type Noop struct{}

func (Noop) ExplainScore(context.Context, ScoreContext) (ScoreExplanation, error) {
	return ScoreExplanation{Explanation: FallbackScoreExplanation, Recommendation: FallbackScoreRecommendation}, nil
}

func (Noop) ExplainAnomaly(context.Context, AnomalyContext) (string, error) {
	return FallbackAnomaly, nil
}
