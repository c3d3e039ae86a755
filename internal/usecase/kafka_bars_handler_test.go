package usecase

import (
	"context"
	"testing"
	"time"
)

func TestKafkaBarsHandlerStoresBar(t *testing.T) {
	store := &fakeBarStorage{}
	h := NewKafkaBarsHandler("quantpulse.bars", store, nopMetrics{})

	if h.Topic() != "quantpulse.bars" {
		t.Fatalf("unexpected topic %s", h.Topic())
	}

	msg := []byte(`{"symbol":"ETHUSDT","t":1717200000,"o":100,"h":101,"l":99,"c":100.5,"v":12.5}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("expected 1 stored bar, got %d", len(store.stored))
	}
	b := store.stored[0]
	if b.Symbol != "ETHUSDT" || b.Close != 100.5 || b.Volume != 12.5 {
		t.Fatalf("unexpected bar %+v", b)
	}
	if !b.Time.Equal(time.Unix(1717200000, 0).UTC()) {
		t.Fatalf("unexpected time %v", b.Time)
	}
}

func TestKafkaBarsHandlerConvertsMilliseconds(t *testing.T) {
	store := &fakeBarStorage{}
	h := NewKafkaBarsHandler("quantpulse.bars", store, nopMetrics{})

	msg := []byte(`{"symbol":"ETHUSDT","t":1717200000000,"o":100,"h":101,"l":99,"c":100.5,"v":1}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := store.stored[0].Time.Unix(); got != 1717200000 {
		t.Fatalf("ms timestamp not converted, got %d", got)
	}
}

func TestKafkaBarsHandlerRejectsBadJSON(t *testing.T) {
	h := NewKafkaBarsHandler("quantpulse.bars", &fakeBarStorage{}, nopMetrics{})
	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
