package strategy

import (
	"math"
	"strings"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
)

func newTestMachine(t *testing.T, mutate func(*Config)) *StateMachine {
	t.Helper()
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if mutate != nil {
		mutate(&cfg)
	}
	cooldown := NewCooldown(cfg.Cooldown, testLogger(t))
	return NewStateMachine(cfg, cooldown, testLogger(t))
}

// exitRow builds a row that triggers no moving-average or RSI exit on its
// own, so each test can flip exactly the condition under study.
func exitRow(close, wma float64) models.FeatureRow {
	return models.FeatureRow{
		Bar:     models.Bar{Close: close},
		LineWMA: wma,
		RSI:     50,
	}
}

func TestFixedStopLossBoundary(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)

	// 14.5% loss, WMA below price so the reversal stop stays quiet.
	dec := m.EvaluateExit(exitRow(85.5, 80), 0.5)
	if dec.Action != ExitNone {
		t.Fatalf("14.5%% loss should not trip the 15%% fixed stop, got %+v", dec)
	}

	// Exactly 15% closes; the boundary is inclusive.
	dec = m.EvaluateExit(exitRow(85, 80), 0.5)
	if dec.Action != ExitStopLoss {
		t.Fatalf("15%% loss should trip the fixed stop, got %+v", dec)
	}
	if !strings.Contains(dec.Reason, "fixed stop") {
		t.Fatalf("reason %q should name the fixed stop", dec.Reason)
	}
}

func TestFixedStopLossShortSide(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(-1, 100, testTime, 0.9, -0.5)

	if dec := m.EvaluateExit(exitRow(110, 120), -0.5); dec.Action != ExitNone {
		t.Fatalf("9%% short loss should hold, got %+v", dec)
	}
	dec := m.EvaluateExit(exitRow(120, 130), -0.5)
	if dec.Action != ExitStopLoss {
		t.Fatalf("16.7%% short loss should trip the fixed stop, got %+v", dec)
	}
}

func TestWMAReversalStop(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)

	// 6% loss with price under the WMA: past 30% of the fixed stop distance.
	dec := m.EvaluateExit(exitRow(94, 95), 0.5)
	if dec.Action != ExitStopLoss {
		t.Fatalf("WMA reversal at 6%% loss should stop out, got %+v", dec)
	}
	if !strings.Contains(dec.Reason, "WMA reversal") {
		t.Fatalf("reason %q should name the WMA reversal stop", dec.Reason)
	}
}

func TestWMAReversalStopNeedsMinimumLoss(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)

	// 3% loss is inside the 4.5% trigger distance even with price under WMA.
	if dec := m.EvaluateExit(exitRow(97, 98), 0.5); dec.Action != ExitNone {
		t.Fatalf("3%% loss should not trip the WMA reversal stop, got %+v", dec)
	}
}

func TestWMAReversalWithScoreFlipTakesProfit(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)

	// Losing 2%, price under the WMA and the composite flipped negative:
	// exits as a take profit regardless of the unrealized sign.
	dec := m.EvaluateExit(exitRow(98, 99), -0.2)
	if dec.Action != ExitTakeProfit {
		t.Fatalf("WMA reversal with flipped score should exit, got %+v", dec)
	}
	if !strings.Contains(dec.Reason, "signal flip") {
		t.Fatalf("reason %q should mention the signal flip", dec.Reason)
	}
}

func TestCallbackTakeProfit(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)
	m.MarkBar(110)

	// Retraced 5.45% from the 110 watermark while still up 4%.
	dec := m.EvaluateExit(exitRow(104, 90), 0.5)
	if dec.Action != ExitTakeProfit {
		t.Fatalf("5.45%% retrace should take profit, got %+v", dec)
	}
	if !strings.Contains(dec.Reason, "callback") {
		t.Fatalf("reason %q should name the callback exit", dec.Reason)
	}

	m.Reset()
	m.Open(1, 100, testTime, 0.9, 0.5)
	m.MarkBar(110)
	if dec := m.EvaluateExit(exitRow(105.1, 90), 0.5); dec.Action != ExitNone {
		t.Fatalf("4.45%% retrace should hold, got %+v", dec)
	}
}

func TestRSITakeProfit(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)
	m.MarkBar(105)

	row := exitRow(105, 90)
	row.RSI = 80
	dec := m.EvaluateExit(row, 0.5)
	if dec.Action != ExitTakeProfit || !strings.Contains(dec.Reason, "overbought") {
		t.Fatalf("RSI 80 on a winning long should take profit, got %+v", dec)
	}

	m.Reset()
	m.Open(-1, 100, testTime, 0.9, -0.5)
	m.MarkBar(95)
	row = exitRow(95, 110)
	row.RSI = 20
	dec = m.EvaluateExit(row, -0.5)
	if dec.Action != ExitTakeProfit || !strings.Contains(dec.Reason, "oversold") {
		t.Fatalf("RSI 20 on a winning short should take profit, got %+v", dec)
	}
}

func TestTimeBasedTakeProfit(t *testing.T) {
	m := newTestMachine(t, func(cfg *Config) {
		cfg.TakeProfit.TimeBasedEnabled = boolPtr(true)
		cfg.TakeProfit.TimeBasedPeriods = 3
	})
	m.Open(1, 100, testTime, 0.9, 0.5)
	for i := 0; i < 3; i++ {
		m.MarkBar(101)
	}
	dec := m.EvaluateExit(exitRow(101, 90), 0.5)
	if dec.Action != ExitTakeProfit || !strings.Contains(dec.Reason, "time-based") {
		t.Fatalf("3 held bars should trigger the time exit, got %+v", dec)
	}
}

func TestDisabledStopLossHolds(t *testing.T) {
	m := newTestMachine(t, func(cfg *Config) {
		cfg.StopLoss.Enabled = boolPtr(false)
	})
	m.Open(1, 100, testTime, 0.9, 0.5)
	if dec := m.EvaluateExit(exitRow(70, 60), 0.5); dec.Action != ExitNone {
		t.Fatalf("disabled stop loss must never close, got %+v", dec)
	}
}

func TestShouldOpenPositionNoPyramiding(t *testing.T) {
	m := newTestMachine(t, nil)
	if !m.ShouldOpenPosition(1) || !m.ShouldOpenPosition(-1) {
		t.Fatalf("flat machine should accept both directions")
	}
	if m.ShouldOpenPosition(0) {
		t.Fatalf("zero signal never opens")
	}

	m.Open(1, 100, testTime, 0.9, 0.5)
	if m.ShouldOpenPosition(1) {
		t.Fatalf("same-direction re-entry must be rejected")
	}
	if !m.ShouldOpenPosition(-1) {
		t.Fatalf("opposite direction should be allowed through")
	}
}

func TestWatermarksTrackExtremes(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)
	for _, p := range []float64{103, 99, 108, 104} {
		m.MarkBar(p)
	}
	pos := m.Position()
	if pos.HighWatermark != 108 || pos.LowWatermark != 99 {
		t.Fatalf("watermarks = %v/%v, want 108/99", pos.HighWatermark, pos.LowWatermark)
	}
	if pos.HoldingBars != 4 {
		t.Fatalf("holding bars = %d, want 4", pos.HoldingBars)
	}
}

func TestCloseFeedsCooldown(t *testing.T) {
	m := newTestMachine(t, nil)
	m.Open(1, 100, testTime, 0.9, 0.5)
	m.Close(-10, testTime, "test")
	if !m.Flat() {
		t.Fatalf("machine should be flat after close")
	}
	if got := m.Cooldown().ConsecutiveLosses(); got != 1 {
		t.Fatalf("cooldown losses = %d, want 1", got)
	}
}

func TestCooldownActivationSkipAndRecovery(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	c := NewCooldown(cfg.Cooldown, testLogger(t))

	c.RecordTrade(-5, testTime)
	if c.Active() {
		t.Fatalf("one loss should not activate with threshold 2")
	}
	c.RecordTrade(-5, testTime.Add(time.Hour))
	if !c.Active() || c.Level() != 1 {
		t.Fatalf("two losses should activate level 1, got active=%v level=%d", c.Active(), c.Level())
	}
	if got := c.SizeReduction(); got != 0.8 {
		t.Fatalf("level 1 size reduction = %v, want 0.8", got)
	}

	// Level 1 holds back the next trades, then recovers; the recovering
	// evaluation itself trades again.
	now := testTime.Add(2 * time.Hour)
	if !c.ShouldSkipTrade(now) {
		t.Fatalf("first evaluation under cooldown should be skipped")
	}
	if !c.ShouldSkipTrade(now) {
		t.Fatalf("second evaluation under cooldown should be skipped")
	}
	if c.ShouldSkipTrade(now) {
		t.Fatalf("third evaluation should recover and trade")
	}
	if c.Active() {
		t.Fatalf("cooldown should be inactive after recovery")
	}
	if got := c.SizeReduction(); got != 1.0 {
		t.Fatalf("size reduction after recovery = %v, want 1.0", got)
	}
}

func TestCooldownLevels(t *testing.T) {
	cases := []struct {
		losses    int
		level     int
		reduction float64
	}{
		{2, 1, 0.8},
		{5, 2, 0.7},
		{7, 3, 0.5},
	}
	for _, tc := range cases {
		cfg, err := NewConfig()
		if err != nil {
			t.Fatalf("config: %v", err)
		}
		cfg.Cooldown.LossThreshold = tc.losses
		c := NewCooldown(cfg.Cooldown, testLogger(t))
		for i := 0; i < tc.losses; i++ {
			c.RecordTrade(-1, testTime.Add(time.Duration(i)*time.Hour))
		}
		if c.Level() != tc.level {
			t.Fatalf("%d losses: level = %d, want %d", tc.losses, c.Level(), tc.level)
		}
		if got := c.SizeReduction(); got != tc.reduction {
			t.Fatalf("%d losses: reduction = %v, want %v", tc.losses, got, tc.reduction)
		}
	}
}

func TestCooldownWinBreaksStreak(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	c := NewCooldown(cfg.Cooldown, testLogger(t))
	c.RecordTrade(-1, testTime)
	c.RecordTrade(3, testTime.Add(time.Hour))
	c.RecordTrade(-1, testTime.Add(2*time.Hour))
	if c.Active() {
		t.Fatalf("a win between losses must break the streak")
	}
	if got := c.ConsecutiveLosses(); got != 1 {
		t.Fatalf("consecutive losses = %d, want 1", got)
	}
}

func TestCooldownRealtimeMode(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Cooldown.Mode = "realtime"
	c := NewCooldown(cfg.Cooldown, testLogger(t))
	c.RecordTrade(-1, testTime)
	c.RecordTrade(-1, testTime)
	if !c.Active() {
		t.Fatalf("realtime cooldown should activate after two losses")
	}

	// Realtime never skips trades, it only shrinks them until expiry.
	if c.ShouldSkipTrade(testTime.Add(time.Hour)) {
		t.Fatalf("realtime mode must not skip trades")
	}
	if !c.Active() || c.SizeReduction() != 0.8 {
		t.Fatalf("cooldown should stay active with reduced size before expiry")
	}

	if c.ShouldSkipTrade(testTime.Add(25 * time.Hour)) {
		t.Fatalf("expired cooldown must not skip")
	}
	if c.Active() {
		t.Fatalf("level 1 cooldown should expire after 24 hours")
	}
}

func TestRiskAdjusterMultiplier(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r := NewRiskAdjuster(cfg, testLogger(t))
	if r.Multiplier() != 1.0 {
		t.Fatalf("initial multiplier = %v, want 1.0", r.Multiplier())
	}

	// Strong steady growth pushes the multiplier to the cap.
	value := 1000.0
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			value *= 1.02
		} else {
			value *= 0.995
		}
		r.UpdatePortfolioValue(value)
	}
	if r.Multiplier() != cfg.Sharpe.MaxRiskMultiplier {
		t.Fatalf("multiplier = %v, want cap %v", r.Multiplier(), cfg.Sharpe.MaxRiskMultiplier)
	}

	// A flat equity curve has no excess return and halves exposure.
	r.Reset()
	for i := 0; i < 40; i++ {
		r.UpdatePortfolioValue(1000)
	}
	if r.Multiplier() != 0.5 {
		t.Fatalf("flat curve multiplier = %v, want 0.5", r.Multiplier())
	}

	r.Reset()
	if r.Multiplier() != 1.0 || r.Sharpe() != 0 {
		t.Fatalf("reset should restore the initial state")
	}
}

func TestRiskScoreNeutralOnThinHistory(t *testing.T) {
	rows := make([]models.FeatureRow, 20)
	if got := riskScore(rows, len(rows)-1); got != 0.5 {
		t.Fatalf("risk score on 20 bars = %v, want neutral 0.5", got)
	}
	if got := drawdownScore(rows, len(rows)-1); got != 0.5 {
		t.Fatalf("drawdown score on 20 bars = %v, want neutral 0.5", got)
	}
}

func TestRiskAndDrawdownScores(t *testing.T) {
	rows := make([]models.FeatureRow, 40)
	last := len(rows) - 1
	rows[last].SharpeShort = 1.0
	rows[last].SharpeLong = 1.0

	// Zero volatility and perfect Sharpe readings grade 1.0.
	if got := riskScore(rows, last); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("risk score = %v, want 1.0", got)
	}

	rows[last].MaxDDShort = -0.1
	rows[last].MaxDDLong = -0.3
	got := drawdownScore(rows, last)
	if math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("drawdown score = %v, want 0.6", got)
	}
}
