package scoring

import (
	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/indicators"
)

// Neutral sentiment fallbacks used when the external feeds are unavailable.
const (
	NeutralVIX   = 20.0
	NeutralGreed = 50.0
)

// SentimentScore grades external market sentiment. The greed index maps
// linearly onto [-1,1] around 50 and the VIX inversely around 20, blended
// 60/40. The signal fires only past +-0.3.
func SentimentScore(vixFear, greedScore float64) models.ScoreTriple {
	greedNorm := indicators.Clamp((greedScore-50)/50, -1, 1)
	vixNorm := indicators.Clamp(-(vixFear-20)/30, -1, 1)
	score := indicators.Clamp(0.6*greedNorm+0.4*vixNorm, -1, 1)

	sig := 0.0
	if score > 0.3 {
		sig = 1
	} else if score < -0.3 {
		sig = -1
	}
	return models.ScoreTriple{Signal: sig, Trend: score}
}
