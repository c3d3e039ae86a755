package scoring

import (
	"math"
	"testing"
)

func sumWeights(w Weights) float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

func TestFixedWeightsNormalized(t *testing.T) {
	w := FixedWeights()
	if len(w) != 10 {
		t.Fatalf("expected 10 indicator weights, got %d", len(w))
	}
	if math.Abs(sumWeights(w)-1) > 1e-9 {
		t.Fatalf("fixed weights should sum to 1, got %v", sumWeights(w))
	}
}

func TestDynamicWeightsNormalized(t *testing.T) {
	states := []MarketState{
		AnalyzeMarketState(40, 80, 2.0, 0.05),
		AnalyzeMarketState(10, 20, 0.5, 0.005),
		AnalyzeMarketState(22, 50, 1.0, 0.02),
	}
	for i, s := range states {
		w := DynamicWeights(s)
		if len(w) != 10 {
			t.Fatalf("state %d: expected 10 weights, got %d", i, len(w))
		}
		if math.Abs(sumWeights(w)-1) > 1e-9 {
			t.Fatalf("state %d: weights should sum to 1, got %v", i, sumWeights(w))
		}
	}
}

func TestDynamicWeightsTiltWithTrendStrength(t *testing.T) {
	strong := DynamicWeights(MarketState{TrendStrength: "strong", RSIState: "neutral", VolumeState: "normal", Volatility: "normal"})
	weak := DynamicWeights(MarketState{TrendStrength: "weak", RSIState: "neutral", VolumeState: "normal", Volatility: "normal"})
	if strong[KeyADX] <= weak[KeyADX] {
		t.Fatalf("strong trend should weight ADX above weak: %v vs %v", strong[KeyADX], weak[KeyADX])
	}
	if weak[KeyRSI] <= strong[KeyRSI] {
		t.Fatalf("weak trend should weight RSI above strong: %v vs %v", weak[KeyRSI], strong[KeyRSI])
	}
	if weak[KeyBB] <= strong[KeyBB] {
		t.Fatalf("weak trend should weight bands above strong: %v vs %v", weak[KeyBB], strong[KeyBB])
	}
}

func TestAnalyzeMarketStateBuckets(t *testing.T) {
	cases := []struct {
		adx, rsi, volRatio, vol float64
		want                    MarketState
	}{
		{30, 75, 1.6, 0.04, MarketState{"strong", "overbought", "high", "high"}},
		{22, 25, 0.6, 0.005, MarketState{"moderate", "oversold", "low", "low"}},
		{15, 50, 1.0, 0.02, MarketState{"weak", "neutral", "normal", "normal"}},
	}
	for i, c := range cases {
		got := AnalyzeMarketState(c.adx, c.rsi, c.volRatio, c.vol)
		if got != c.want {
			t.Fatalf("case %d: got %+v, want %+v", i, got, c.want)
		}
	}
}

func TestNormalizeZeroTotalIsNoop(t *testing.T) {
	w := Weights{KeyADX: 0, KeyEMA: 0}
	w.Normalize()
	if w[KeyADX] != 0 || w[KeyEMA] != 0 {
		t.Fatalf("zero-total normalize should not change weights: %+v", w)
	}
}
