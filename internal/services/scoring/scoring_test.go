package scoring

import (
	"math"
	"testing"

	"QuantPulse/internal/services/indicators"
)

// walk produces a deterministic pseudo-random price path.
func walk(n int, seed uint64) (close, volume []float64) {
	close = make([]float64, n)
	volume = make([]float64, n)
	price := 100.0
	state := seed
	for i := 0; i < n; i++ {
		state = state*6364136223846793005 + 1442695040888963407
		r := float64(state>>33)/float64(1<<31) - 1 // roughly [-1, 1)
		price *= 1 + 0.01*r
		close[i] = price
		volume[i] = 1000 + 500*math.Abs(r)
	}
	return close, volume
}

func checkTriple(t *testing.T, name string, signal, sideways, trend []float64) {
	t.Helper()
	const tol = 1e-9
	for i := range signal {
		if signal[i] < -1-tol || signal[i] > 1+tol {
			t.Fatalf("%s signal out of range at %d: %v", name, i, signal[i])
		}
		if sideways[i] < -tol || sideways[i] > 1+tol {
			t.Fatalf("%s sideways out of range at %d: %v", name, i, sideways[i])
		}
		if trend[i] < -1-tol || trend[i] > 1+tol {
			t.Fatalf("%s trend out of range at %d: %v", name, i, trend[i])
		}
	}
}

func TestScorerOutputRanges(t *testing.T) {
	n := 300
	close, volume := walk(n, 42)
	high := make([]float64, n)
	low := make([]float64, n)
	for i := range close {
		high[i] = close[i] * 1.005
		low[i] = close[i] * 0.995
	}

	adx, diPlus, diMinus := indicators.ADX(high, low, close, 14)
	sig, side, trend := ADXScore(adx, diPlus, diMinus)
	checkTriple(t, "adx", sig, side, trend)

	ema20 := indicators.EMA(close, 20)
	ema50 := indicators.EMA(close, 50)
	sma104 := indicators.SMA(close, 104)
	sig, side, trend = EMAScore(close, ema20, ema50, sma104, 30)
	checkTriple(t, "ema", sig, side, trend)

	rsi := indicators.RSI(close, 14)
	sig, side, trend = RSIScore(rsi, 14)
	checkTriple(t, "rsi", sig, side, trend)

	line, msig, hist := indicators.MACD(close, 12, 26, 9)
	sig, side, trend = MACDScore(line, msig, hist, close)
	checkTriple(t, "macd", sig, side, trend)

	sig, side, trend = PriceScore(close, volume, 5, 10, 15)
	checkTriple(t, "price", sig, side, trend)

	atr := indicators.ATR(high, low, close, 14)
	sig, side, trend = ATRScore(atr, close, 14)
	checkTriple(t, "atr", sig, side, trend)

	sig, side, trend = VolumeScore(volume, close, 20)
	checkTriple(t, "volume", sig, side, trend)

	up, mid, lo := indicators.Bollinger(close, 10, 2)
	sig, side, trend = BollingerScore(close, up, mid, lo, 20)
	checkTriple(t, "bb", sig, side, trend)

	obv := indicators.OBV(close, volume)
	sig, side, trend = OBVScore(obv, 14)
	checkTriple(t, "obv", sig, side, trend)
}

func TestADXScoreRangingMarket(t *testing.T) {
	adx := []float64{5, 10, 15}
	diPlus := []float64{20, 20, 20}
	diMinus := []float64{20, 20, 20}
	_, side, trend := ADXScore(adx, diPlus, diMinus)
	for i := range adx {
		if trend[i] != 0 {
			t.Fatalf("trend should be zero below ADX 20, got %v at %d", trend[i], i)
		}
		if side[i] <= 0.5 {
			t.Fatalf("ranging market should score sideways, got %v at %d", side[i], i)
		}
	}
}

func TestADXScoreStrongTrend(t *testing.T) {
	sig, side, _ := ADXScore([]float64{45}, []float64{40}, []float64{10})
	if sig[0] <= 0.5 {
		t.Fatalf("strong directional trend should score high, got %v", sig[0])
	}
	if side[0] != 0 {
		t.Fatalf("strong trend should not score sideways, got %v", side[0])
	}
}

func TestSentimentScore(t *testing.T) {
	greedy := SentimentScore(15, 90)
	if greedy.Signal != 1 {
		t.Fatalf("high greed and low fear should be bullish, got %v", greedy.Signal)
	}
	fearful := SentimentScore(55, 10)
	if fearful.Signal != -1 {
		t.Fatalf("low greed and high fear should be bearish, got %v", fearful.Signal)
	}
	neutral := SentimentScore(NeutralVIX, NeutralGreed)
	if neutral.Signal != 0 || neutral.Trend != 0 {
		t.Fatalf("neutral inputs should score zero, got %+v", neutral)
	}
}

func TestMeasureEntanglementFiltersFlatMarket(t *testing.T) {
	// Price sitting on top of its baselines.
	e := MeasureEntanglement(100.0, 99.95, 100.01, 99.99)
	if !e.ShouldFilter {
		t.Fatalf("entangled averages should be filtered: %+v", e)
	}
	if e.Intensity < 0.9 {
		t.Fatalf("tight entanglement should be intense, got %v", e.Intensity)
	}
}

func TestMeasureEntanglementPerfectBullish(t *testing.T) {
	e := MeasureEntanglement(105, 100, 103, 102)
	if !e.PerfectBullish {
		t.Fatalf("expected perfect bullish arrangement: %+v", e)
	}
	if e.ShouldFilter {
		t.Fatalf("separated bullish stack should not be filtered: %+v", e)
	}
}

func TestMeasureEntanglementTinyDeviationStillFiltered(t *testing.T) {
	// Perfectly stacked but price hugs the WMA within 0.2 percent.
	e := MeasureEntanglement(100.1, 100.0, 100.05, 100.02)
	if !e.PerfectBullish {
		t.Fatalf("expected bullish stack: %+v", e)
	}
	if !e.ShouldFilter {
		t.Fatalf("deviation %.3f%% below threshold should still filter", e.DeviationPct)
	}
}
