package strategy

import (
	"strings"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
	"QuantPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func boolPtr(v bool) *bool { return &v }

// cleanRow is a feature row a long signal sails through with default filters:
// price close to the WMA, neutral RSI, a clean bullish MA stack.
func cleanRow() models.FeatureRow {
	return models.FeatureRow{
		Bar:      models.Bar{Symbol: "ETHUSDT", Close: 105, High: 106, Low: 101, Open: 104, Volume: 1000},
		LineWMA:  100,
		OpenEMA:  102,
		CloseEMA: 103,
		RSI:      50,
		ATR:      2,
	}
}

func singleRowInput(row models.FeatureRow, direction int, base, trend float64) FilterInput {
	return FilterInput{
		Rows:       []models.FeatureRow{row},
		Index:      0,
		Direction:  direction,
		BaseScore:  base,
		TrendScore: trend,
	}
}

func TestRSIFilterVetoesOverboughtLong(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f := &rsiFilter{cfg: cfg.Filters.RSI}

	row := cleanRow()
	row.RSI = 90
	ok, reason := f.Check(singleRowInput(row, 1, 0.5, 0.5))
	if ok {
		t.Fatalf("expected RSI 90 to veto a long against threshold 85")
	}
	if !strings.Contains(reason, "overbought") {
		t.Fatalf("veto reason %q should mention overbought", reason)
	}

	row.RSI = 80
	if ok, _ := f.Check(singleRowInput(row, 1, 0.5, 0.5)); !ok {
		t.Fatalf("RSI 80 should pass a long under threshold 85")
	}

	row.RSI = 20
	ok, reason = f.Check(singleRowInput(row, -1, -0.5, -0.5))
	if ok {
		t.Fatalf("expected RSI 20 to veto a short against threshold 25")
	}
	if !strings.Contains(reason, "oversold") {
		t.Fatalf("veto reason %q should mention oversold", reason)
	}
}

func TestPriceDeviationThreshold(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f := &priceDeviationFilter{cfg: cfg.Filters.PriceDeviation}

	row := cleanRow() // ATR ratio ~1.9%, no adjustment
	if got := f.threshold(row); got != 2.0 {
		t.Fatalf("mixed regime threshold = %v, want 2.0", got)
	}

	row.Regime = models.RegimeStrongTrend
	if got := f.threshold(row); got != 7.0 {
		t.Fatalf("strong trend threshold = %v, want 7.0", got)
	}

	row.ATR = 8 // ratio ~7.6% adds 1.5, clamped at 8
	if got := f.threshold(row); got != 8.0 {
		t.Fatalf("strong trend high ATR threshold = %v, want 8.0", got)
	}

	row.Regime = models.RegimeStrongOscillation
	row.ATR = 0.5 // ratio ~0.5% subtracts 0.5
	if got := f.threshold(row); got != 1.0 {
		t.Fatalf("oscillation low ATR threshold = %v, want clamp at 1.0", got)
	}
}

func TestPriceDeviationVetoesChasedEntry(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f := &priceDeviationFilter{cfg: cfg.Filters.PriceDeviation}

	row := cleanRow()
	row.Bar.Low = 104 // 4% above the WMA, threshold 2%
	ok, reason := f.Check(singleRowInput(row, 1, 0.5, 0.5))
	if ok {
		t.Fatalf("long with low 4%% above WMA should be vetoed")
	}
	if !strings.Contains(reason, "WMA") {
		t.Fatalf("veto reason %q should mention WMA", reason)
	}

	row.Bar.Low = 101 // 1% above the WMA
	if ok, _ := f.Check(singleRowInput(row, 1, 0.5, 0.5)); !ok {
		t.Fatalf("long with low 1%% above WMA should pass")
	}

	short := cleanRow()
	short.Bar.High = 97 // 3% below the WMA
	if ok, _ := f.Check(singleRowInput(short, -1, -0.5, -0.5)); ok {
		t.Fatalf("short with high 3%% below WMA should be vetoed")
	}
}

func TestVolatilityFilterBand(t *testing.T) {
	f := &volatilityFilter{cfg: VolatilityConfig{Window: 3, Min: 0.005, Max: 0.45}}

	rows := func(returns ...float64) []models.FeatureRow {
		out := make([]models.FeatureRow, len(returns))
		for i, r := range returns {
			out[i] = cleanRow()
			out[i].Return = r
		}
		return out
	}

	in := FilterInput{Rows: rows(0.01, -0.01, 0.01), Index: 2, Direction: 1}
	if ok, _ := f.Check(in); !ok {
		t.Fatalf("volatility inside the band should pass")
	}

	in = FilterInput{Rows: rows(0.01, 0.01, 0.01), Index: 2, Direction: 1}
	ok, reason := f.Check(in)
	if ok {
		t.Fatalf("zero volatility should be vetoed as too calm")
	}
	if !strings.Contains(reason, "below") {
		t.Fatalf("veto reason %q should mention below", reason)
	}

	in = FilterInput{Rows: rows(0.5, -0.5, 0.5), Index: 2, Direction: 1}
	ok, reason = f.Check(in)
	if ok {
		t.Fatalf("extreme volatility should be vetoed")
	}
	if !strings.Contains(reason, "above") {
		t.Fatalf("veto reason %q should mention above", reason)
	}

	in = FilterInput{Rows: rows(0.5, -0.5), Index: 1, Direction: 1}
	if ok, _ := f.Check(in); !ok {
		t.Fatalf("unfilled window should pass")
	}
}

func TestScoreFilterThresholds(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f := &scoreFilter{cfg: cfg.Filters.Score}
	row := cleanRow()

	ok, reason := f.Check(singleRowInput(row, 1, 0.5, 0.2))
	if ok || !strings.Contains(reason, "trend") {
		t.Fatalf("long trend 0.2 should veto with a trend reason, got ok=%v reason=%q", ok, reason)
	}
	ok, reason = f.Check(singleRowInput(row, 1, 0.2, 0.5))
	if ok || !strings.Contains(reason, "base") {
		t.Fatalf("long base 0.2 should veto with a base reason, got ok=%v reason=%q", ok, reason)
	}
	if ok, _ := f.Check(singleRowInput(row, 1, 0.4, 0.4)); !ok {
		t.Fatalf("long 0.4/0.4 should pass")
	}

	if ok, _ := f.Check(singleRowInput(row, -1, -0.4, -0.05)); ok {
		t.Fatalf("short trend -0.05 above -0.1 should veto")
	}
	if ok, _ := f.Check(singleRowInput(row, -1, -0.2, -0.2)); ok {
		t.Fatalf("short base -0.2 above -0.3 should veto")
	}
	if ok, _ := f.Check(singleRowInput(row, -1, -0.4, -0.2)); !ok {
		t.Fatalf("short -0.4/-0.2 should pass")
	}
}

func TestEntanglementFilter(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	f := &entanglementFilter{cfg: cfg.Filters.Entanglement}

	// Clean bullish stack with 5% separation from the WMA.
	row := cleanRow()
	if ok, reason := f.Check(singleRowInput(row, 1, 0.5, 0.5)); !ok {
		t.Fatalf("clean bullish stack should pass, got %q", reason)
	}

	entangled := cleanRow()
	entangled.Bar.Close = 102.5 // between the EMAs
	ok, reason := f.Check(singleRowInput(entangled, 1, 0.5, 0.5))
	if ok {
		t.Fatalf("close inside the EMA band should be vetoed")
	}
	if !strings.Contains(reason, "entangled") {
		t.Fatalf("veto reason %q should mention entanglement", reason)
	}

	tight := models.FeatureRow{
		Bar:      models.Bar{Close: 100.1},
		LineWMA:  100,
		OpenEMA:  100.02,
		CloseEMA: 100.05,
	}
	ok, reason = f.Check(singleRowInput(tight, 1, 0.5, 0.5))
	if ok {
		t.Fatalf("0.1%% separation inside the 0.2%% band should be vetoed")
	}
	if !strings.Contains(reason, "band") {
		t.Fatalf("veto reason %q should mention the band", reason)
	}
}

func TestFilterChainFirstVetoWins(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Filters.PriceDeviation.Enabled = boolPtr(false)
	cfg.Filters.Volatility.Enabled = boolPtr(false)
	cfg.Filters.Entanglement.Enabled = boolPtr(false)
	chain := NewFilterChain(cfg.Filters)

	row := cleanRow()
	row.RSI = 90
	dir, reason, traces := chain.Apply(singleRowInput(row, 1, 0.5, 0.5))
	if dir != 0 {
		t.Fatalf("direction = %d, want 0 after RSI veto", dir)
	}
	if !strings.Contains(reason, "overbought") {
		t.Fatalf("reason %q should come from the RSI filter", reason)
	}
	if len(traces) != 1 || traces[0].Name != "rsi" || traces[0].Passed {
		t.Fatalf("trace should stop at the failing rsi filter, got %+v", traces)
	}

	row.RSI = 50
	dir, _, traces = chain.Apply(singleRowInput(row, 1, 0.5, 0.5))
	if dir != 1 {
		t.Fatalf("direction = %d, want 1 when every filter passes", dir)
	}
	if len(traces) != 2 {
		t.Fatalf("expected 2 traces for rsi and score, got %d", len(traces))
	}
	for _, tr := range traces {
		if !tr.Passed {
			t.Fatalf("filter %s unexpectedly vetoed: %s", tr.Name, tr.Reason)
		}
	}
}

func TestFilterChainZeroDirectionShortCircuits(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	chain := NewFilterChain(cfg.Filters)
	dir, reason, traces := chain.Apply(singleRowInput(cleanRow(), 0, 0, 0))
	if dir != 0 || reason != "" || traces != nil {
		t.Fatalf("zero direction should short-circuit, got dir=%d reason=%q traces=%v", dir, reason, traces)
	}
}

func TestDisabledFilterMatchesRemovedFilter(t *testing.T) {
	base, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	row := cleanRow()
	row.RSI = 90 // only the RSI filter objects to this row
	in := singleRowInput(row, 1, 0.5, 0.5)

	full := NewFilterChain(base.Filters)
	if dir, _, _ := full.Apply(in); dir != 0 {
		t.Fatalf("full chain should veto the overbought row")
	}

	disabled := base.Filters
	disabled.RSI.Enabled = boolPtr(false)
	dir, reason, traces := NewFilterChain(disabled).Apply(in)
	if dir != 1 {
		t.Fatalf("chain with RSI disabled should pass, got dir=%d reason=%q", dir, reason)
	}
	for _, tr := range traces {
		if tr.Name == "rsi" {
			t.Fatalf("disabled filter must not appear in the trace")
		}
	}
}

var testTime = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
