package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/domain/repository"
	pkgkafka "QuantPulse/pkg/kafka"
)

// ClickHouseBarStorage implements BarStorage for ClickHouse.
type ClickHouseBarStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseBarStorage creates ClickHouse bar storage.
func NewClickHouseBarStorage(db *sql.DB, table string) repository.BarStorage {
	return &ClickHouseBarStorage{db: db, table: table}
}

func (s *ClickHouseBarStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseBarStorage) Store(ctx context.Context, b *models.Bar) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, vol, source, event_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency key derived from symbol+bar open time
	eventID := fmt.Sprintf("%s-%d", b.Symbol, b.Time.Unix())
	_, err := s.db.ExecContext(ctx, q,
		b.Time,
		b.Symbol,
		b.Open,
		b.High,
		b.Low,
		b.Close,
		b.Volume,
		"binance",
		eventID,
	)
	return err
}

func (s *ClickHouseBarStorage) StoreBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, b := range bars[start:end] {
			if b == nil || b.Symbol == "" || b.Time.IsZero() {
				continue
			}
			eventID := fmt.Sprintf("%s-%d", b.Symbol, b.Time.Unix())
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				b.Time,
				b.Symbol,
				b.Open,
				b.High,
				b.Low,
				b.Close,
				b.Volume,
				"binance",
				eventID,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, open, high, low, close, vol, source, event_id) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseBarStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error) {
	q := fmt.Sprintf("SELECT symbol, ts, open, high, low, close, vol FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []*models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}

func (s *ClickHouseBarStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseBarStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaBarPublisher implements BarPublisher for Kafka.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaBarPublisher creates a Kafka bar publisher.
func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) repository.BarPublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func barPayload(b *models.Bar) map[string]interface{} {
	return map[string]interface{}{
		"symbol": b.Symbol,
		"t":      b.Time.Unix(),
		"o":      b.Open,
		"h":      b.High,
		"l":      b.Low,
		"c":      b.Close,
		"v":      b.Volume,
	}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, b *models.Bar) error {
	return p.producer.Publish(ctx, p.topic, []byte(b.Symbol), barPayload(b))
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, bars []*models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(bars))
	for i, b := range bars {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(b.Symbol),
			Value: barPayload(b),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
