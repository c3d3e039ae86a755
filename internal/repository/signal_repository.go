package repository

import (
	"context"
	"database/sql"
	"fmt"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/domain/repository"
	pkgkafka "QuantPulse/pkg/kafka"
)

// KafkaSignalPublisher implements SignalPublisher for Kafka. Downstream
// consumers (order router, notifier) subscribe to the signals topic.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka signal publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) repository.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) PublishSignal(ctx context.Context, rec *models.SignalRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.Symbol), rec)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// CHTradeLog implements TradeLog backed by ClickHouse.
type CHTradeLog struct {
	db    *sql.DB
	table string
}

// NewCHTradeLog creates a ClickHouse trade log.
func NewCHTradeLog(db *sql.DB, table string) repository.TradeLog {
	return &CHTradeLog{db: db, table: table}
}

func (t *CHTradeLog) Append(ctx context.Context, tr *models.TradeRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, action, side, price, notional, cash, pnl, reason, base_score, trend_score, score) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", t.table)
	_, err := t.db.ExecContext(ctx, q,
		tr.Time,
		tr.Symbol,
		string(tr.Action),
		tr.Side,
		tr.Price,
		tr.Notional,
		tr.Cash,
		tr.PnL,
		tr.Reason,
		tr.BaseScore,
		tr.TrendScore,
		tr.Score,
	)
	return err
}

func (t *CHTradeLog) Recent(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error) {
	q := fmt.Sprintf("SELECT ts, symbol, action, side, price, notional, cash, pnl, reason, base_score, trend_score, score FROM %s WHERE symbol = ? ORDER BY ts DESC LIMIT ?", t.table)
	rows, err := t.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TradeRecord
	for rows.Next() {
		var tr models.TradeRecord
		var action string
		if err := rows.Scan(&tr.Time, &tr.Symbol, &action, &tr.Side, &tr.Price, &tr.Notional, &tr.Cash, &tr.PnL, &tr.Reason, &tr.BaseScore, &tr.TrendScore, &tr.Score); err != nil {
			return nil, err
		}
		tr.Action = models.TradeAction(action)
		out = append(out, tr)
	}
	return out, rows.Err()
}
