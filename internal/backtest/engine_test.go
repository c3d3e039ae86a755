package backtest

import (
	"math"
	"strings"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/scoring"
	"QuantPulse/pkg/logger"
)

var testTime = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(Config{}, testLogger(t))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return eng
}

func flatBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			Time:   testTime.Add(time.Duration(i) * time.Hour),
			Symbol: "ETHUSDT",
			Open:   100, High: 100, Low: 100, Close: 100,
			Volume: 1000,
		}
	}
	return bars
}

func barRow(close float64, at time.Time) models.FeatureRow {
	return models.FeatureRow{
		Bar: models.Bar{Symbol: "ETHUSDT", Time: at, Close: close},
		RSI: 50,
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.Run(nil, scoring.SentimentSnapshot{}); err == nil {
		t.Fatalf("expected an error for an empty bar series")
	}
}

func TestRunRejectsOutOfOrderBars(t *testing.T) {
	eng := newTestEngine(t)
	bars := flatBars(10)
	bars[5].Time = bars[2].Time.Add(-time.Hour)
	if _, err := eng.Run(bars, scoring.SentimentSnapshot{}); err == nil {
		t.Fatalf("expected an error for out-of-order bars")
	}
}

func TestRunFlatMarketNeverTrades(t *testing.T) {
	eng := newTestEngine(t)
	res, err := eng.Run(flatBars(120), scoring.SentimentSnapshot{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalTrades != 0 {
		t.Fatalf("a flat market should produce no trades, got %d", res.TotalTrades)
	}
	if res.FinalCash != res.InitialCash {
		t.Fatalf("final cash = %v, want untouched %v", res.FinalCash, res.InitialCash)
	}
	if res.ReturnRatio != 0 {
		t.Fatalf("return ratio = %v, want 0", res.ReturnRatio)
	}
	if len(res.Equity) != 120 {
		t.Fatalf("equity curve length = %d, want one point per bar", len(res.Equity))
	}
	for _, p := range res.Equity {
		if p.Equity != res.InitialCash {
			t.Fatalf("flat market equity = %v at %v, want %v", p.Equity, p.Time, res.InitialCash)
		}
	}
}

func TestOpenAndCloseAccounting(t *testing.T) {
	eng := newTestEngine(t)
	st := &runState{cash: 1000}

	rec := models.SignalRecord{
		Direction:      1,
		PositionSize:   0.5,
		BaseScore:      0.5,
		TrendScore:     0.4,
		CompositeScore: 0.46,
		Reason:         "long",
	}
	eng.openPosition(st, barRow(100, testTime), rec)

	// Half the cash committed plus a 0.1% entry fee.
	if math.Abs(st.notional-500) > 1e-9 {
		t.Fatalf("notional = %v, want 500", st.notional)
	}
	if math.Abs(st.cash-499.5) > 1e-9 {
		t.Fatalf("cash after open = %v, want 499.5", st.cash)
	}
	if eng.eng.Machine().Side() != 1 {
		t.Fatalf("state machine should be long after open")
	}
	if len(st.trades) != 1 || st.trades[0].Action != models.TradeOpen {
		t.Fatalf("open should append one open record, got %+v", st.trades)
	}

	// Close 10% higher: 50 gross PnL, 0.55 exit fee on the 550 proceeds.
	eng.closePosition(st, barRow(110, testTime.Add(time.Hour)), "take profit")
	if math.Abs(st.cash-1048.95) > 1e-9 {
		t.Fatalf("cash after close = %v, want 1048.95", st.cash)
	}
	if !eng.eng.Machine().Flat() {
		t.Fatalf("state machine should be flat after close")
	}
	closeRec := st.trades[1]
	if closeRec.Action != models.TradeClose {
		t.Fatalf("second record should be the close, got %+v", closeRec)
	}
	if math.Abs(closeRec.PnL-49.45) > 1e-9 {
		t.Fatalf("net pnl = %v, want 49.45", closeRec.PnL)
	}
	if closeRec.Score != rec.CompositeScore {
		t.Fatalf("close record should snapshot the entry score, got %v", closeRec.Score)
	}
}

func TestShortCloseAccounting(t *testing.T) {
	eng := newTestEngine(t)
	st := &runState{cash: 1000}

	rec := models.SignalRecord{Direction: -1, PositionSize: 0.5, CompositeScore: -0.4, Reason: "short"}
	eng.openPosition(st, barRow(100, testTime), rec)

	// Price drops 20%: short profit ratio is 100/80 - 1 = 25%.
	eng.closePosition(st, barRow(80, testTime.Add(time.Hour)), "take profit")
	want := 499.5 + 625 - 0.625
	if math.Abs(st.cash-want) > 1e-9 {
		t.Fatalf("cash after short close = %v, want %v", st.cash, want)
	}
}

func TestMarkEquityIncludesOpenPosition(t *testing.T) {
	eng := newTestEngine(t)
	st := &runState{cash: 1000}
	eng.openPosition(st, barRow(100, testTime), models.SignalRecord{Direction: 1, PositionSize: 0.5})

	equity := eng.markEquity(st, barRow(105, testTime.Add(time.Hour)))
	if math.Abs(equity-1024.5) > 1e-9 {
		t.Fatalf("marked equity = %v, want 499.5 + 500*1.05", equity)
	}
	if len(st.equity) != 1 || st.equity[0].Equity != equity {
		t.Fatalf("equity point not recorded: %+v", st.equity)
	}
}

func TestFinishForcesLiquidation(t *testing.T) {
	eng := newTestEngine(t)
	st := &runState{cash: 1000}
	eng.openPosition(st, barRow(100, testTime), models.SignalRecord{Direction: 1, PositionSize: 0.5})

	last := barRow(90, testTime.Add(time.Hour))
	eng.markEquity(st, last)
	eng.finish(st, last)

	if !eng.eng.Machine().Flat() {
		t.Fatalf("finish must flatten the position")
	}
	closeRec := st.trades[len(st.trades)-1]
	if closeRec.Action != models.TradeClose || !strings.Contains(closeRec.Reason, "backtest end liquidation") {
		t.Fatalf("forced close record wrong: %+v", closeRec)
	}
	if st.equity[len(st.equity)-1].Equity != st.cash {
		t.Fatalf("final equity point should equal settled cash")
	}

	// A second finish is a no-op on a flat book.
	before := len(st.trades)
	eng.finish(st, last)
	if len(st.trades) != before {
		t.Fatalf("finish on a flat book must not add trades")
	}
}

func TestSummarizeStatistics(t *testing.T) {
	eng := newTestEngine(t)
	st := &runState{cash: 1025}
	st.trades = []models.TradeRecord{
		{Action: models.TradeOpen},
		{Action: models.TradeClose, PnL: 10},
		{Action: models.TradeOpen},
		{Action: models.TradeClose, PnL: -5},
		{Action: models.TradeOpen},
		{Action: models.TradeClose, PnL: 20},
	}

	res := eng.summarize(st)
	if res.TotalTrades != 3 || res.ProfitableTrades != 2 || res.LosingTrades != 1 {
		t.Fatalf("trade counts wrong: %+v", res)
	}
	if math.Abs(res.WinRate-200.0/3) > 1e-9 {
		t.Fatalf("win rate = %v, want 66.67", res.WinRate)
	}
	if res.AvgWin != 15 || res.AvgLoss != 5 {
		t.Fatalf("avg win/loss = %v/%v, want 15/5", res.AvgWin, res.AvgLoss)
	}
	if res.ProfitFactor != 6 {
		t.Fatalf("profit factor = %v, want 6", res.ProfitFactor)
	}
	if math.Abs(res.ReturnRatio-2.5) > 1e-9 {
		t.Fatalf("return ratio = %v, want 2.5", res.ReturnRatio)
	}
}
