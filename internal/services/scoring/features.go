package scoring

import (
	"math"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/indicators"
)

// Config holds the indicator periods and blending behaviour of the feature
// builder. Zero values fall back to the standard periods.
type Config struct {
	ShortWindow int     `yaml:"short_window" default:"30"`
	LongWindow  int     `yaml:"long_window" default:"90"`
	WeightMode  string  `yaml:"weight_mode" default:"dynamic" validate:"omitempty,oneof=dynamic fixed"`
	RiskFree    float64 `yaml:"risk_free_rate" default:"0.02"`

	LineWMAPeriod  int     `yaml:"line_wma_period" default:"55"`
	OpenClosePer   int     `yaml:"open_close_ema_period" default:"25"`
	SlowSMAPeriod  int     `yaml:"slow_sma_period" default:"104"`
	RSIPeriod      int     `yaml:"rsi_period" default:"14"`
	MACDFast       int     `yaml:"macd_fast" default:"12"`
	MACDSlow       int     `yaml:"macd_slow" default:"26"`
	MACDSignal     int     `yaml:"macd_signal" default:"9"`
	ATRPeriod      int     `yaml:"atr_period" default:"14"`
	ADXPeriod      int     `yaml:"adx_period" default:"14"`
	BBPeriod       int     `yaml:"bb_period" default:"10"`
	BBStd          float64 `yaml:"bb_std" default:"2"`
	VolumeWindow   int     `yaml:"volume_window" default:"20"`
	BBScoreWindow  int     `yaml:"bb_score_window" default:"20"`
	OBVScoreWindow int     `yaml:"obv_score_window" default:"14"`
	PriceLookback  int     `yaml:"price_lookback" default:"5"`
}

func (c Config) withDefaults() Config {
	def := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	def(&c.ShortWindow, 30)
	def(&c.LongWindow, 90)
	def(&c.LineWMAPeriod, 55)
	def(&c.OpenClosePer, 25)
	def(&c.SlowSMAPeriod, 104)
	def(&c.RSIPeriod, 14)
	def(&c.MACDFast, 12)
	def(&c.MACDSlow, 26)
	def(&c.MACDSignal, 9)
	def(&c.ATRPeriod, 14)
	def(&c.ADXPeriod, 14)
	def(&c.BBPeriod, 10)
	def(&c.VolumeWindow, 20)
	def(&c.BBScoreWindow, 20)
	def(&c.OBVScoreWindow, 14)
	def(&c.PriceLookback, 5)
	if c.BBStd <= 0 {
		c.BBStd = 2
	}
	if c.WeightMode == "" {
		c.WeightMode = "dynamic"
	}
	if c.RiskFree <= 0 {
		c.RiskFree = 0.02
	}
	return c
}

// SentimentSnapshot carries the latest external sentiment readings. Valid
// marks them as observed; an unset snapshot falls back to the neutral
// values, while an observed greed reading of 0 (extreme fear) is kept.
type SentimentSnapshot struct {
	VIXFear    float64
	GreedScore float64
	Valid      bool
}

func (s SentimentSnapshot) orNeutral() SentimentSnapshot {
	if s.Valid {
		return s
	}
	return SentimentSnapshot{VIXFear: NeutralVIX, GreedScore: NeutralGreed, Valid: true}
}

// Builder turns raw bars into fully scored feature rows.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder with defaults applied to cfg.
func NewBuilder(cfg Config) *Builder { return &Builder{cfg: cfg.withDefaults()} }

// Config returns the effective configuration after defaulting.
func (b *Builder) Config() Config { return b.cfg }

// Build computes every indicator, runs all ten scorers and blends their
// outputs into composite base, trend and sideways scores for each bar.
// Weights are resolved once from the latest bar's market state and applied
// across the whole series.
func (b *Builder) Build(bars []models.Bar, sent SentimentSnapshot) []models.FeatureRow {
	n := len(bars)
	if n == 0 {
		return nil
	}
	cfg := b.cfg
	sent = sent.orNeutral()

	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	volume := make([]float64, n)
	for i, bar := range bars {
		open[i] = bar.Open
		high[i] = bar.High
		low[i] = bar.Low
		close[i] = bar.Close
		volume[i] = bar.Volume
	}

	lineWMA := indicators.WMA(close, cfg.LineWMAPeriod)
	openEMA := indicators.EMA(open, cfg.OpenClosePer)
	closeEMA := indicators.EMA(close, cfg.OpenClosePer)
	ema9 := indicators.EMA(close, 9)
	ema12 := indicators.EMA(close, 12)
	ema20 := indicators.EMA(close, 20)
	ema24 := indicators.EMA(close, 24)
	ema50 := indicators.EMA(close, 50)
	sma104 := indicators.SMA(close, cfg.SlowSMAPeriod)

	rsi := indicators.RSI(close, cfg.RSIPeriod)
	macdLine, macdSig, macdHist := indicators.MACD(close, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	atr := indicators.ATR(high, low, close, cfg.ATRPeriod)
	adx, diPlus, diMinus := indicators.ADX(high, low, close, cfg.ADXPeriod)
	bbUp, bbMid, bbLo := indicators.Bollinger(close, cfg.BBPeriod, cfg.BBStd)
	obv := indicators.OBV(close, volume)

	adxSig, adxSide, adxTrend := ADXScore(adx, diPlus, diMinus)
	emaSig, emaSide, emaTrend := EMAScore(close, ema20, ema50, sma104, cfg.ShortWindow)
	rsiSig, rsiSide, rsiTrend := RSIScore(rsi, cfg.RSIPeriod)
	macdSigS, macdSide, macdTrend := MACDScore(macdLine, macdSig, macdHist, close)
	priceSig, priceSide, priceTrend := PriceScore(close, volume, cfg.PriceLookback, 10, 15)
	atrSig, atrSide, atrTrend := ATRScore(atr, close, cfg.ATRPeriod)
	volSig, volSide, volTrend := VolumeScore(volume, close, cfg.VolumeWindow)
	bbSig, bbSide, bbTrend := BollingerScore(close, bbUp, bbMid, bbLo, cfg.BBScoreWindow)
	obvSig, obvSide, obvTrend := OBVScore(obv, cfg.OBVScoreWindow)
	sentScore := SentimentScore(sent.VIXFear, sent.GreedScore)

	returns := indicators.Returns(close)
	rfPerBar := cfg.RiskFree / (365 * 24)
	sharpeShort := indicators.RollingSharpe(returns, cfg.ShortWindow, rfPerBar)
	sharpeLong := indicators.RollingSharpe(returns, cfg.LongWindow, rfPerBar)
	ddShort := maxDrawdown(close, cfg.ShortWindow)
	ddLong := maxDrawdown(close, cfg.LongWindow)
	volatility := indicators.RollingStd(returns, cfg.ShortWindow)
	for i := range volatility {
		volatility[i] *= math.Sqrt(252)
	}

	weights := b.resolveWeights(adx, rsi, volume, returns)

	rows := make([]models.FeatureRow, n)
	for i := 0; i < n; i++ {
		row := models.FeatureRow{
			Bar:        bars[i],
			LineWMA:    lineWMA[i],
			OpenEMA:    openEMA[i],
			CloseEMA:   closeEMA[i],
			EMA9:       ema9[i],
			EMA12:      ema12[i],
			EMA20:      ema20[i],
			EMA24:      ema24[i],
			EMA50:      ema50[i],
			SMA104:     sma104[i],
			RSI:        rsi[i],
			MACD:       macdLine[i],
			MACDSignal: macdSig[i],
			MACDHist:   macdHist[i],
			ATR:        atr[i],
			ADX:        adx[i],
			DIPlus:     diPlus[i],
			DIMinus:    diMinus[i],
			BBUpper:    bbUp[i],
			BBMiddle:   bbMid[i],
			BBLower:    bbLo[i],
			OBV:        obv[i],

			Return:      returns[i],
			SharpeShort: sharpeShort[i],
			SharpeLong:  sharpeLong[i],
			MaxDDShort:  ddShort[i],
			MaxDDLong:   ddLong[i],
			Volatility:  volatility[i],

			GreedScore: sent.GreedScore,
			VIXFear:    sent.VIXFear,

			ADXScore:       models.ScoreTriple{Signal: adxSig[i], Sideways: adxSide[i], Trend: adxTrend[i]},
			EMAScore:       models.ScoreTriple{Signal: emaSig[i], Sideways: emaSide[i], Trend: emaTrend[i]},
			RSIScore:       models.ScoreTriple{Signal: rsiSig[i], Sideways: rsiSide[i], Trend: rsiTrend[i]},
			MACDScore:      models.ScoreTriple{Signal: macdSigS[i], Sideways: macdSide[i], Trend: macdTrend[i]},
			PriceScore:     models.ScoreTriple{Signal: priceSig[i], Sideways: priceSide[i], Trend: priceTrend[i]},
			ATRScore:       models.ScoreTriple{Signal: atrSig[i], Sideways: atrSide[i], Trend: atrTrend[i]},
			VolumeScore:    models.ScoreTriple{Signal: volSig[i], Sideways: volSide[i], Trend: volTrend[i]},
			BBScore:        models.ScoreTriple{Signal: bbSig[i], Sideways: bbSide[i], Trend: bbTrend[i]},
			OBVScore:       models.ScoreTriple{Signal: obvSig[i], Sideways: obvSide[i], Trend: obvTrend[i]},
			SentimentScore: sentScore,
		}

		row.BaseScore = weights[KeyADX]*row.ADXScore.Signal +
			weights[KeyEMA]*row.EMAScore.Signal +
			weights[KeyRSI]*row.RSIScore.Signal +
			weights[KeyMACD]*row.MACDScore.Signal +
			weights[KeyPrice]*row.PriceScore.Signal +
			weights[KeyATR]*row.ATRScore.Signal +
			weights[KeyVolume]*row.VolumeScore.Signal +
			weights[KeyBB]*row.BBScore.Signal +
			weights[KeyOBV]*row.OBVScore.Signal +
			weights[KeySentiment]*row.SentimentScore.Signal

		row.TrendScore = weights[KeyADX]*row.ADXScore.Trend +
			weights[KeyEMA]*row.EMAScore.Trend +
			weights[KeyRSI]*row.RSIScore.Trend +
			weights[KeyMACD]*row.MACDScore.Trend +
			weights[KeyPrice]*row.PriceScore.Trend +
			weights[KeyATR]*row.ATRScore.Trend +
			weights[KeyVolume]*row.VolumeScore.Trend +
			weights[KeyBB]*row.BBScore.Trend +
			weights[KeyOBV]*row.OBVScore.Trend +
			weights[KeySentiment]*row.SentimentScore.Trend

		// Price action is too noisy for the oscillation composite and
		// sentiment has no oscillation reading, so both stay out here.
		row.SidewaysScore = weights[KeyADX]*row.ADXScore.Sideways +
			weights[KeyEMA]*row.EMAScore.Sideways +
			weights[KeyRSI]*row.RSIScore.Sideways +
			weights[KeyMACD]*row.MACDScore.Sideways +
			weights[KeyATR]*row.ATRScore.Sideways +
			weights[KeyVolume]*row.VolumeScore.Sideways +
			weights[KeyBB]*row.BBScore.Sideways +
			weights[KeyOBV]*row.OBVScore.Sideways

		combined := (row.ADXScore.Sideways + row.EMAScore.Sideways + row.RSIScore.Sideways +
			row.MACDScore.Sideways + row.PriceScore.Sideways + row.ATRScore.Sideways +
			row.VolumeScore.Sideways + row.BBScore.Sideways + row.OBVScore.Sideways) / 9
		switch {
		case combined >= 0.7:
			row.Regime = models.RegimeStrongOscillation
		case combined <= 0.35:
			row.Regime = models.RegimeStrongTrend
		default:
			row.Regime = models.RegimeMixed
		}

		rows[i] = row
	}
	return rows
}

// Weights resolves the blend weights for the given bars, exposing the same
// weight set Build applies internally.
func (b *Builder) Weights(bars []models.Bar) Weights {
	n := len(bars)
	if n == 0 || b.cfg.WeightMode == "fixed" {
		return FixedWeights()
	}
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	volume := make([]float64, n)
	for i, bar := range bars {
		high[i] = bar.High
		low[i] = bar.Low
		close[i] = bar.Close
		volume[i] = bar.Volume
	}
	adx, _, _ := indicators.ADX(high, low, close, b.cfg.ADXPeriod)
	rsi := indicators.RSI(close, b.cfg.RSIPeriod)
	return b.resolveWeights(adx, rsi, volume, indicators.Returns(close))
}

func (b *Builder) resolveWeights(adx, rsi, volume, returns []float64) Weights {
	if b.cfg.WeightMode == "fixed" {
		return FixedWeights()
	}
	n := len(adx)
	curADX := 25.0
	curRSI := 50.0
	if n > 0 {
		curADX = adx[n-1]
		curRSI = rsi[n-1]
	}
	volumeRatio := 1.0
	if n >= 20 {
		ma := indicators.RollingMean(volume, 20)
		if ma[n-1] > 0 {
			volumeRatio = volume[n-1] / ma[n-1]
		}
	}
	volatility := 0.02
	if n >= 20 {
		std := indicators.RollingStd(returns, 20)
		volatility = std[n-1]
	}
	return DynamicWeights(AnalyzeMarketState(curADX, curRSI, volumeRatio, volatility))
}

// maxDrawdown computes drawdown against the trailing window peak, then takes
// the worst reading over another trailing window.
func maxDrawdown(close []float64, window int) []float64 {
	rollMax := indicators.RollingMax(close, window)
	dd := make([]float64, len(close))
	for i := range close {
		if rollMax[i] > 0 {
			dd[i] = (close[i] - rollMax[i]) / rollMax[i]
		}
	}
	return indicators.RollingMin(dd, window)
}
