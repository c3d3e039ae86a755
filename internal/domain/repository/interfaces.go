package repository

import (
	"context"
	"time"

	"QuantPulse/internal/domain/models"
)

// MarketStream is a live candle feed. Read emits one Bar per closed candle.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Bar, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarPublisher forwards closed bars to the message bus.
type BarPublisher interface {
	Publish(ctx context.Context, b *models.Bar) error
	PublishBatch(ctx context.Context, bars []*models.Bar) error
	Close() error
}

// BarStorage persists closed bars.
type BarStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, b *models.Bar) error
	StoreBatch(ctx context.Context, bars []*models.Bar) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SignalPublisher forwards emitted signal records to the message bus for
// downstream consumers (order router, notifier).
type SignalPublisher interface {
	PublishSignal(ctx context.Context, rec *models.SignalRecord) error
	Close() error
}

// TradeLog is the append-only persisted trade history.
type TradeLog interface {
	Append(ctx context.Context, tr *models.TradeRecord) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error)
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
