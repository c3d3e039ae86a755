package usecase

import (
	"context"
	"testing"
	"time"

	domrepo "QuantPulse/internal/domain/repository"
)

func TestGetBarsRequiresSymbol(t *testing.T) {
	uc := NewBarsUseCase(&fakeBarStore{})
	_, err := uc.GetBars(context.Background(), GetBarsParams{})
	if err == nil {
		t.Fatalf("expected error for missing symbol")
	}
}

func TestGetBarsRejectsInvertedRange(t *testing.T) {
	uc := NewBarsUseCase(&fakeBarStore{})
	now := time.Now()
	_, err := uc.GetBars(context.Background(), GetBarsParams{
		Symbol: "ETHUSDT",
		From:   now,
		To:     now.Add(-time.Hour),
	})
	if err == nil {
		t.Fatalf("expected error for from > to")
	}
}

func TestGetBarsLimitClamp(t *testing.T) {
	store := &fakeBarStore{bars: seriesBars(50)}
	uc := NewBarsUseCase(store)

	res, err := uc.GetBars(context.Background(), GetBarsParams{
		Symbol:    "ETHUSDT",
		From:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Timeframe: domrepo.TF1h,
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if res.Count != 10 {
		t.Fatalf("expected 10 bars after clamp, got %d", res.Count)
	}
	if res.Timeframe != "1h" {
		t.Fatalf("unexpected timeframe %s", res.Timeframe)
	}
}

func TestGetBarsAlignsRange(t *testing.T) {
	store := &fakeBarStore{bars: seriesBars(5)}
	uc := NewBarsUseCase(store)

	from := time.Date(2024, 6, 1, 10, 37, 12, 0, time.UTC)
	to := time.Date(2024, 6, 2, 3, 5, 0, 0, time.UTC)
	_, err := uc.GetBars(context.Background(), GetBarsParams{
		Symbol:    "ETHUSDT",
		From:      from,
		To:        to,
		Timeframe: domrepo.TF1h,
	})
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if store.lastFrom.Minute() != 0 || store.lastFrom.Second() != 0 {
		t.Fatalf("from not aligned: %v", store.lastFrom)
	}
	if store.lastTo.Minute() != 0 {
		t.Fatalf("to not aligned: %v", store.lastTo)
	}
}
