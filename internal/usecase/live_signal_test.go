package usecase

import (
	"context"
	"testing"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/services/scoring"
	"QuantPulse/internal/strategy"
)

func newLiveUC(t *testing.T, store *fakeBarStore, pub domrepo.SignalPublisher) *LiveSignalUseCase {
	t.Helper()
	l := testLogger(t)
	eng, err := strategy.NewEngine(strategy.Config{}, l)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	sent := &fakeSentiment{reading: models.NeutralSentiment()}
	builder := scoring.NewBuilder(scoring.Config{})
	return NewLiveSignalUseCase(store, sent, builder, eng, pub, l)
}

func TestComputeLatestRequiresSymbol(t *testing.T) {
	uc := newLiveUC(t, &fakeBarStore{}, nil)
	if _, err := uc.ComputeLatest(context.Background(), "", 100, domrepo.TF1h); err == nil {
		t.Fatalf("expected error for missing symbol")
	}
}

func TestComputeLatestEmptyHistory(t *testing.T) {
	uc := newLiveUC(t, &fakeBarStore{}, nil)
	if _, err := uc.ComputeLatest(context.Background(), "ETHUSDT", 100, domrepo.TF1h); err == nil {
		t.Fatalf("expected error for empty history")
	}
}

func TestComputeLatestEmitsRecord(t *testing.T) {
	store := &fakeBarStore{bars: seriesBars(120)}
	pub := &fakeSignalPublisher{}
	uc := newLiveUC(t, store, pub)

	rec, err := uc.ComputeLatest(context.Background(), "ETHUSDT", 120, domrepo.TF1h)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if rec.Symbol != "ETHUSDT" {
		t.Fatalf("unexpected symbol %s", rec.Symbol)
	}
	if rec.Reason == "" {
		t.Fatalf("expected a reason on the record")
	}
	if store.lastN != 120 {
		t.Fatalf("store queried with n=%d", store.lastN)
	}
	if len(pub.records) != 1 {
		t.Fatalf("expected 1 published record, got %d", len(pub.records))
	}
}

func TestComputeLatestDefaultsN(t *testing.T) {
	store := &fakeBarStore{bars: seriesBars(40)}
	uc := newLiveUC(t, store, nil)

	if _, err := uc.ComputeLatest(context.Background(), "ETHUSDT", 0, domrepo.TF1h); err != nil {
		t.Fatalf("compute: %v", err)
	}
	if store.lastN != 600 {
		t.Fatalf("expected default n=600, got %d", store.lastN)
	}
}

func TestPositionStatusFlatByDefault(t *testing.T) {
	store := &fakeBarStore{bars: seriesBars(60)}
	uc := newLiveUC(t, store, nil)

	if _, err := uc.ComputeLatest(context.Background(), "ETHUSDT", 60, domrepo.TF1h); err != nil {
		t.Fatalf("compute: %v", err)
	}
	st := uc.PositionStatus()
	if st.Side != 0 {
		t.Fatalf("expected flat position, got side %d", st.Side)
	}
	rs := uc.RiskStatus()
	if rs.Level == "" {
		t.Fatalf("expected risk level")
	}
}
