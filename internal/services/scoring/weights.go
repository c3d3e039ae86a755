package scoring

// Indicator names used as weight keys.
const (
	KeyADX       = "adx"
	KeyEMA       = "ema"
	KeyMACD      = "macd"
	KeyRSI       = "rsi"
	KeyPrice     = "price"
	KeyATR       = "atr"
	KeyVolume    = "volume"
	KeyBB        = "bb"
	KeyOBV       = "obv"
	KeySentiment = "sentiment"
)

// Weights maps indicator name to blend weight. A valid weight set sums to 1.
type Weights map[string]float64

// Normalize scales the weights to sum to 1 and returns the receiver.
func (w Weights) Normalize() Weights {
	var total float64
	for _, v := range w {
		total += v
	}
	if total > 0 {
		for k, v := range w {
			w[k] = v / total
		}
	}
	return w
}

// baseWeights returns the fixed intuition-ratio weight set, normalized.
func baseWeights() Weights {
	return Weights{
		KeyADX:       0.14,
		KeyEMA:       0.14,
		KeyMACD:      0.14,
		KeyRSI:       0.14,
		KeyPrice:     0.09,
		KeyATR:       0.10,
		KeyVolume:    0.10,
		KeyBB:        0.05,
		KeyOBV:       0.05,
		KeySentiment: 0.05,
	}.Normalize()
}

// FixedWeights returns the static indicator weight set.
func FixedWeights() Weights { return baseWeights() }

// MarketState is the coarse bucketing of current conditions that drives
// dynamic weight adjustment.
type MarketState struct {
	TrendStrength string // strong, moderate, weak
	RSIState      string // overbought, oversold, neutral
	VolumeState   string // high, normal, low
	Volatility    string // high, normal, low
}

// AnalyzeMarketState buckets the latest ADX, RSI, volume ratio and
// return volatility readings.
func AnalyzeMarketState(adx, rsi, volumeRatio, volatility float64) MarketState {
	s := MarketState{TrendStrength: "weak", RSIState: "neutral", VolumeState: "normal", Volatility: "normal"}
	if adx > 25 {
		s.TrendStrength = "strong"
	} else if adx > 20 {
		s.TrendStrength = "moderate"
	}
	if rsi > 70 {
		s.RSIState = "overbought"
	} else if rsi < 30 {
		s.RSIState = "oversold"
	}
	if volumeRatio > 1.5 {
		s.VolumeState = "high"
	} else if volumeRatio < 0.7 {
		s.VolumeState = "low"
	}
	if volatility > 0.03 {
		s.Volatility = "high"
	} else if volatility < 0.01 {
		s.Volatility = "low"
	}
	return s
}

// DynamicWeights tilts the base weights toward trend indicators in strong
// trends and toward oscillation indicators in ranging markets, then layers
// RSI-extreme, volume and volatility adjustments on top. The result is
// normalized.
func DynamicWeights(state MarketState) Weights {
	base := baseWeights()
	w := Weights{}

	switch state.TrendStrength {
	case "strong":
		w[KeyADX] = base[KeyADX] * 1.5
		w[KeyEMA] = base[KeyEMA] * 1.3
		w[KeyMACD] = base[KeyMACD] * 1.2
		w[KeyPrice] = base[KeyPrice] * 0.8
		w[KeyRSI] = base[KeyRSI] * 0.7
		w[KeyBB] = base[KeyBB] * 0.6
	case "weak":
		w[KeyRSI] = base[KeyRSI] * 1.4
		w[KeyBB] = base[KeyBB] * 1.3
		w[KeyPrice] = base[KeyPrice] * 1.2
		w[KeyADX] = base[KeyADX] * 0.7
		w[KeyEMA] = base[KeyEMA] * 0.8
		w[KeyMACD] = base[KeyMACD] * 0.9
	default:
		for k, v := range base {
			w[k] = v
		}
	}

	if state.RSIState == "overbought" || state.RSIState == "oversold" {
		w[KeyRSI] = pick(w, base, KeyRSI) * 1.3
		w[KeyBB] = pick(w, base, KeyBB) * 1.2
	}

	switch state.VolumeState {
	case "high":
		w[KeyVolume] = base[KeyVolume] * 1.4
		w[KeyOBV] = base[KeyOBV] * 1.3
		w[KeyPrice] = pick(w, base, KeyPrice) * 1.1
	case "low":
		w[KeyVolume] = base[KeyVolume] * 0.6
		w[KeyOBV] = base[KeyOBV] * 0.7
		w[KeyPrice] = pick(w, base, KeyPrice) * 0.9
	default:
		w[KeyVolume] = pick(w, base, KeyVolume)
		w[KeyOBV] = pick(w, base, KeyOBV)
	}

	switch state.Volatility {
	case "high":
		w[KeyATR] = base[KeyATR] * 1.4
		w[KeyBB] = pick(w, base, KeyBB) * 1.2
		w[KeyPrice] = pick(w, base, KeyPrice) * 0.8
	case "low":
		w[KeyATR] = base[KeyATR] * 0.6
		w[KeyPrice] = pick(w, base, KeyPrice) * 1.2
		w[KeyRSI] = pick(w, base, KeyRSI) * 1.1
	default:
		w[KeyATR] = pick(w, base, KeyATR)
	}

	for k, v := range base {
		if _, ok := w[k]; !ok {
			w[k] = v
		}
	}
	return w.Normalize()
}

func pick(w, base Weights, key string) float64 {
	if v, ok := w[key]; ok {
		return v
	}
	return base[key]
}
