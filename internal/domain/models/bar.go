package models

import "time"

// Bar represents one OHLCV candle. Bars are immutable once produced and the
// ordered bar sequence is the only time axis the engine knows about.
type Bar struct {
	Time   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// ScoreTriple is one indicator scorer's output for a single bar.
// Signal is the (possibly smoothed) direction in [-1,1], Sideways the
// oscillation strength in [0,1], Trend the directional strength in [-1,1].
type ScoreTriple struct {
	Signal   float64
	Sideways float64
	Trend    float64
}

// MarketRegime is the coarse market classification derived from the blended
// sideways score.
type MarketRegime int

const (
	RegimeMixed             MarketRegime = 0
	RegimeStrongTrend       MarketRegime = 1
	RegimeStrongOscillation MarketRegime = 2
)

// FeatureRow is a Bar plus every derived indicator value and scorer output.
// One row per bar, computed strictly from history up to and including the bar.
type FeatureRow struct {
	Bar Bar

	// Moving-average baselines
	LineWMA  float64
	OpenEMA  float64
	CloseEMA float64
	EMA9     float64
	EMA12    float64
	EMA20    float64
	EMA24    float64
	EMA50    float64
	SMA104   float64

	// Oscillators and volatility
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	ATR        float64
	ADX        float64
	DIPlus     float64
	DIMinus    float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	OBV        float64

	// Returns-based risk columns over the configured short/long windows
	Return      float64
	SharpeShort float64
	SharpeLong  float64
	MaxDDShort  float64
	MaxDDLong   float64
	Volatility  float64

	// Externally supplied sentiment inputs
	GreedScore float64
	VIXFear    float64

	// Per-indicator scorer triples
	ADXScore       ScoreTriple
	EMAScore       ScoreTriple
	RSIScore       ScoreTriple
	MACDScore      ScoreTriple
	PriceScore     ScoreTriple
	ATRScore       ScoreTriple
	VolumeScore    ScoreTriple
	BBScore        ScoreTriple
	OBVScore       ScoreTriple
	SentimentScore ScoreTriple

	// Blended composites
	BaseScore     float64
	TrendScore    float64
	SidewaysScore float64
	Regime        MarketRegime
}
