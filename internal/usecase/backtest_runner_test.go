package usecase

import (
	"context"
	"testing"
	"time"

	"QuantPulse/internal/backtest"
	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
)

func newBacktestUC(t *testing.T, store *fakeBarStore, tl *fakeTradeLog) *BacktestUseCase {
	t.Helper()
	var log domrepo.TradeLog
	if tl != nil {
		log = tl
	}
	return NewBacktestUseCase(store, nil, nil, log, backtest.Config{}, testLogger(t))
}

func runParams() RunBacktestParams {
	return RunBacktestParams{
		Symbol:    "ETHUSDT",
		From:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Timeframe: domrepo.TF1h,
	}
}

func TestRunRequiresSymbol(t *testing.T) {
	uc := newBacktestUC(t, &fakeBarStore{}, nil)
	p := runParams()
	p.Symbol = ""
	if _, err := uc.Run(context.Background(), p); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
}

func TestRunRejectsInvertedRange(t *testing.T) {
	uc := newBacktestUC(t, &fakeBarStore{}, nil)
	p := runParams()
	p.From, p.To = p.To, p.From
	if _, err := uc.Run(context.Background(), p); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestRunAppendsResultTradesToLog(t *testing.T) {
	store := &fakeBarStore{bars: seriesBars(300)}
	tl := &fakeTradeLog{}
	uc := newBacktestUC(t, store, tl)

	res, err := uc.Run(context.Background(), runParams())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(tl.appended) != len(res.Trades) {
		t.Fatalf("trade log holds %d entries, result has %d", len(tl.appended), len(res.Trades))
	}
}

func TestPersistTradesAppendsEach(t *testing.T) {
	tl := &fakeTradeLog{}
	uc := newBacktestUC(t, &fakeBarStore{}, tl)

	trades := []models.TradeRecord{
		{Symbol: "ETHUSDT", Action: models.TradeOpen, Side: 1, Price: 100},
		{Symbol: "ETHUSDT", Action: models.TradeClose, Side: 1, Price: 105, PnL: 5},
	}
	uc.persistTrades(context.Background(), trades)
	if len(tl.appended) != 2 {
		t.Fatalf("expected 2 appended trades, got %d", len(tl.appended))
	}
	if tl.appended[1].Action != models.TradeClose || tl.appended[1].PnL != 5 {
		t.Fatalf("unexpected close record %+v", tl.appended[1])
	}
}

func TestPersistTradesNilLogIsNoop(t *testing.T) {
	uc := newBacktestUC(t, &fakeBarStore{}, nil)
	uc.persistTrades(context.Background(), []models.TradeRecord{{Symbol: "ETHUSDT"}})
}

func TestRecentTradesClampsLimit(t *testing.T) {
	tl := &fakeTradeLog{recent: []models.TradeRecord{{Symbol: "ETHUSDT"}}}
	uc := newBacktestUC(t, &fakeBarStore{}, tl)

	got, err := uc.RecentTrades(context.Background(), "ETHUSDT", 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(got))
	}
	if tl.lastSymbol != "ETHUSDT" || tl.lastLimit != 100 {
		t.Fatalf("expected default limit 100 for %s, got %d", tl.lastSymbol, tl.lastLimit)
	}

	if _, err := uc.RecentTrades(context.Background(), "ETHUSDT", 5000); err != nil {
		t.Fatalf("recent: %v", err)
	}
	if tl.lastLimit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", tl.lastLimit)
	}
}

func TestRecentTradesWithoutLog(t *testing.T) {
	uc := newBacktestUC(t, &fakeBarStore{}, nil)
	if _, err := uc.RecentTrades(context.Background(), "ETHUSDT", 10); err == nil {
		t.Fatalf("expected error without a trade log")
	}
}
