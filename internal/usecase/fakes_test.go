package usecase

import (
	"context"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	applogger "QuantPulse/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type fakeBarStore struct {
	bars []models.Bar
	err  error

	lastSymbol string
	lastN      int
	lastFrom   time.Time
	lastTo     time.Time
}

func (s *fakeBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Bar, error) {
	s.lastSymbol, s.lastFrom, s.lastTo = symbol, from, to
	return s.bars, s.err
}

func (s *fakeBarStore) GetLatestNBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	s.lastSymbol, s.lastN = symbol, n
	return s.bars, s.err
}

type fakeBarStorage struct {
	stored []*models.Bar
	err    error
}

func (s *fakeBarStorage) Init(ctx context.Context) error { return nil }
func (s *fakeBarStorage) Store(ctx context.Context, b *models.Bar) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, b)
	return nil
}
func (s *fakeBarStorage) StoreBatch(ctx context.Context, bars []*models.Bar) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, bars...)
	return nil
}
func (s *fakeBarStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error) {
	return nil, nil
}
func (s *fakeBarStorage) Health(ctx context.Context) error { return nil }
func (s *fakeBarStorage) Close() error                     { return nil }

type fakeBarPublisher struct {
	published []*models.Bar
	err       error
}

func (p *fakeBarPublisher) Publish(ctx context.Context, b *models.Bar) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, b)
	return nil
}
func (p *fakeBarPublisher) PublishBatch(ctx context.Context, bars []*models.Bar) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, bars...)
	return nil
}
func (p *fakeBarPublisher) Close() error { return nil }

type fakeSignalPublisher struct {
	records []*models.SignalRecord
}

func (p *fakeSignalPublisher) PublishSignal(ctx context.Context, rec *models.SignalRecord) error {
	p.records = append(p.records, rec)
	return nil
}
func (p *fakeSignalPublisher) Close() error { return nil }

type fakeSentiment struct {
	reading models.SentimentReading
}

func (f *fakeSentiment) Fetch(ctx context.Context) (models.SentimentReading, error) {
	return f.reading, nil
}

type fakeTradeLog struct {
	appended []models.TradeRecord
	recent   []models.TradeRecord
	err      error

	lastSymbol string
	lastLimit  int
}

func (f *fakeTradeLog) Append(ctx context.Context, tr *models.TradeRecord) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, *tr)
	return nil
}

func (f *fakeTradeLog) Recent(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error) {
	f.lastSymbol, f.lastLimit = symbol, limit
	return f.recent, f.err
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(backend, symbol string) {}
func (nopMetrics) RecordError(kind string)                  {}
func (nopMetrics) RecordLastPrice(symbol string, p float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64) {}

func seriesBars(n int) []models.Bar {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	price := 100.0
	for i := range bars {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.995
		}
		bars[i] = models.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Symbol: "ETHUSDT",
			Open:   price * 0.999,
			High:   price * 1.004,
			Low:    price * 0.996,
			Close:  price,
			Volume: 1000,
		}
	}
	return bars
}
