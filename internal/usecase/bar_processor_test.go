package usecase

import (
	"context"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
)

func testBar() *models.Bar {
	return &models.Bar{
		Time:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Symbol: "ETHUSDT",
		Open:   100, High: 101, Low: 99, Close: 100.5, Volume: 10,
	}
}

func TestProcessorRoutesToKafka(t *testing.T) {
	pub := &fakeBarPublisher{}
	store := &fakeBarStorage{}
	p := NewBarProcessor(pub, store, nopMetrics{}, "kafka", 100, time.Second)

	if err := p.Process(context.Background(), testBar()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(pub.published) != 1 || len(store.stored) != 0 {
		t.Fatalf("expected kafka route, pub=%d store=%d", len(pub.published), len(store.stored))
	}
}

func TestProcessorRoutesToClickHouse(t *testing.T) {
	pub := &fakeBarPublisher{}
	store := &fakeBarStorage{}
	p := NewBarProcessor(pub, store, nopMetrics{}, "clickhouse", 100, time.Second)

	if err := p.Process(context.Background(), testBar()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.stored) != 1 || len(pub.published) != 0 {
		t.Fatalf("expected clickhouse route, pub=%d store=%d", len(pub.published), len(store.stored))
	}
}

func TestProcessorUnknownBackend(t *testing.T) {
	p := NewBarProcessor(&fakeBarPublisher{}, &fakeBarStorage{}, nopMetrics{}, "mysql", 100, time.Second)
	if err := p.Process(context.Background(), testBar()); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestProcessorNilBar(t *testing.T) {
	p := NewBarProcessor(&fakeBarPublisher{}, &fakeBarStorage{}, nopMetrics{}, "kafka", 100, time.Second)
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil bar")
	}
}

func TestProcessorBatch(t *testing.T) {
	store := &fakeBarStorage{}
	p := NewBarProcessor(&fakeBarPublisher{}, store, nopMetrics{}, "clickhouse", 100, time.Second)

	bars := []*models.Bar{testBar(), testBar(), testBar()}
	if err := p.ProcessBatch(context.Background(), bars); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(store.stored) != 3 {
		t.Fatalf("expected 3 stored, got %d", len(store.stored))
	}

	// empty batch is a no-op
	if err := p.ProcessBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}
