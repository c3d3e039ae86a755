package scoring

import (
	"math"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
)

func makeBars(close, volume []float64) []models.Bar {
	bars := make([]models.Bar, len(close))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range close {
		bars[i] = models.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Symbol: "ETHUSDT",
			Open:   close[i] * 0.999,
			High:   close[i] * 1.005,
			Low:    close[i] * 0.995,
			Close:  close[i],
			Volume: volume[i],
		}
	}
	return bars
}

func TestBuildEmptyInput(t *testing.T) {
	b := NewBuilder(Config{})
	if rows := b.Build(nil, SentimentSnapshot{}); rows != nil {
		t.Fatalf("empty input should yield nil, got %d rows", len(rows))
	}
}

func TestBuildDefaults(t *testing.T) {
	b := NewBuilder(Config{})
	cfg := b.Config()
	if cfg.ShortWindow != 30 || cfg.LongWindow != 90 {
		t.Fatalf("unexpected default windows: %d %d", cfg.ShortWindow, cfg.LongWindow)
	}
	if cfg.WeightMode != "dynamic" {
		t.Fatalf("unexpected default weight mode %q", cfg.WeightMode)
	}
}

func TestBuildRowPerBar(t *testing.T) {
	close, volume := walk(250, 7)
	bars := makeBars(close, volume)
	rows := NewBuilder(Config{}).Build(bars, SentimentSnapshot{})
	if len(rows) != len(bars) {
		t.Fatalf("expected %d rows, got %d", len(bars), len(rows))
	}
	for i, row := range rows {
		if !row.Bar.Time.Equal(bars[i].Time) {
			t.Fatalf("row %d time mismatch", i)
		}
		if row.SidewaysScore < 0 {
			t.Fatalf("sideways composite negative at %d: %v", i, row.SidewaysScore)
		}
		if math.Abs(row.BaseScore) > 1 || math.Abs(row.TrendScore) > 1 {
			t.Fatalf("composite out of range at %d: base %v trend %v", i, row.BaseScore, row.TrendScore)
		}
	}
}

func TestBuildUptrendScoresPositive(t *testing.T) {
	n := 300
	close := make([]float64, n)
	volume := make([]float64, n)
	for i := 0; i < n; i++ {
		close[i] = 100 * math.Pow(1.01, float64(i))
		volume[i] = 1000 + float64(i)
	}
	rows := NewBuilder(Config{WeightMode: "fixed"}).Build(makeBars(close, volume), SentimentSnapshot{})
	last := rows[n-1]
	if last.TrendScore <= 0 {
		t.Fatalf("steady uptrend should score positive trend, got %v", last.TrendScore)
	}
	if last.ADXScore.Trend <= 0 {
		t.Fatalf("steady uptrend should have positive ADX trend, got %v", last.ADXScore.Trend)
	}
}

func TestBuildNeutralSentimentDefaultsApplied(t *testing.T) {
	close, volume := walk(200, 11)
	rows := NewBuilder(Config{}).Build(makeBars(close, volume), SentimentSnapshot{})
	last := rows[len(rows)-1]
	if last.VIXFear != NeutralVIX || last.GreedScore != NeutralGreed {
		t.Fatalf("zero snapshot should fall back to neutral, got vix %v greed %v", last.VIXFear, last.GreedScore)
	}
	if last.SentimentScore.Signal != 0 {
		t.Fatalf("neutral sentiment should not signal, got %v", last.SentimentScore.Signal)
	}
}

func TestBuildKeepsObservedExtremeFear(t *testing.T) {
	close, volume := walk(200, 11)
	rows := NewBuilder(Config{}).Build(makeBars(close, volume), SentimentSnapshot{
		VIXFear:    35,
		GreedScore: 0,
		Valid:      true,
	})
	last := rows[len(rows)-1]
	if last.GreedScore != 0 {
		t.Fatalf("observed greed 0 must not be replaced, got %v", last.GreedScore)
	}
	if last.VIXFear != 35 {
		t.Fatalf("observed vix must be kept, got %v", last.VIXFear)
	}
	if last.SentimentScore.Signal != -1 {
		t.Fatalf("extreme fear with high vix should signal -1, got %v", last.SentimentScore.Signal)
	}
}

func TestBuildRegimeClassification(t *testing.T) {
	close, volume := walk(250, 3)
	rows := NewBuilder(Config{}).Build(makeBars(close, volume), SentimentSnapshot{})
	for i, row := range rows {
		switch row.Regime {
		case models.RegimeMixed, models.RegimeStrongTrend, models.RegimeStrongOscillation:
		default:
			t.Fatalf("invalid regime %v at %d", row.Regime, i)
		}
	}
}

func TestWeightsMatchModes(t *testing.T) {
	close, volume := walk(100, 5)
	bars := makeBars(close, volume)
	fixed := NewBuilder(Config{WeightMode: "fixed"}).Weights(bars)
	base := FixedWeights()
	for k, v := range base {
		if math.Abs(fixed[k]-v) > 1e-12 {
			t.Fatalf("fixed mode should return base weights, %s: %v vs %v", k, fixed[k], v)
		}
	}
	dyn := NewBuilder(Config{}).Weights(bars)
	var total float64
	for _, v := range dyn {
		total += v
	}
	if math.Abs(total-1) > 1e-9 {
		t.Fatalf("dynamic weights should sum to 1, got %v", total)
	}
}
