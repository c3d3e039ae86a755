package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	domsvc "QuantPulse/internal/domain/service"
	smetrics "QuantPulse/internal/service/metrics"
	"QuantPulse/internal/services/scoring"
	"QuantPulse/internal/strategy"
	"QuantPulse/pkg/logger"
)

// LiveSignalUseCase computes the latest strategy signal over stored candle
// history plus the current sentiment reading. One engine session is shared
// across calls so position and cooldown state persists between bars.
type LiveSignalUseCase struct {
	store     domrepo.BarStore
	sentiment domsvc.SentimentSource
	builder   *scoring.Builder
	engine    *strategy.Engine
	pub       domrepo.SignalPublisher
	log       *logger.Logger

	mu       sync.Mutex
	lastRows []models.FeatureRow
}

// NewLiveSignalUseCase creates a live signal use case. pub may be nil when no
// downstream bus is configured.
func NewLiveSignalUseCase(
	store domrepo.BarStore,
	sentiment domsvc.SentimentSource,
	builder *scoring.Builder,
	engine *strategy.Engine,
	pub domrepo.SignalPublisher,
	log *logger.Logger,
) *LiveSignalUseCase {
	smetrics.Register()
	return &LiveSignalUseCase{
		store:     store,
		sentiment: sentiment,
		builder:   builder,
		engine:    engine,
		pub:       pub,
		log:       log,
	}
}

// ComputeLatest fetches the latest n bars, rebuilds the feature history and
// evaluates the signal for the newest bar. The record is published to the
// signal bus when one is configured.
func (uc *LiveSignalUseCase) ComputeLatest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (*models.SignalRecord, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 600
	}

	bars, err := uc.store.GetLatestNBars(ctx, symbol, n, tf)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s", symbol)
	}

	reading, err := uc.sentiment.Fetch(ctx)
	if err != nil {
		// Fetch degrades internally; an error here means neutral values
		uc.log.Warn("sentiment fetch error", logger.Error(err))
		reading = models.NeutralSentiment()
	}

	rows := uc.builder.Build(bars, scoring.SentimentSnapshot{
		GreedScore: reading.GreedValue,
		VIXFear:    reading.VIXValue,
		Valid:      true,
	})

	rec := uc.engine.ComputeSignal(rows)

	uc.mu.Lock()
	uc.lastRows = rows
	uc.mu.Unlock()

	smetrics.SignalsEmitted.WithLabelValues(symbol, strconv.Itoa(rec.Direction)).Inc()
	smetrics.CompositeScore.WithLabelValues(symbol).Set(rec.CompositeScore)
	for _, f := range rec.Filters {
		if !f.Passed {
			smetrics.FilterVetoes.WithLabelValues(f.Name).Inc()
		}
	}

	if uc.pub != nil {
		if err := uc.pub.PublishSignal(ctx, &rec); err != nil {
			uc.log.Error("signal publish failed", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	uc.log.Info("signal computed",
		logger.String("symbol", symbol),
		logger.Int("direction", rec.Direction),
		logger.Any("composite", rec.CompositeScore),
		logger.Any("size", rec.PositionSize),
		logger.String("reason", rec.Reason),
	)
	return &rec, nil
}

// PositionStatus reports the engine's open position against the latest close.
func (uc *LiveSignalUseCase) PositionStatus() models.PositionStatus {
	uc.mu.Lock()
	rows := uc.lastRows
	uc.mu.Unlock()

	var price float64
	if n := len(rows); n > 0 {
		price = rows[n-1].Bar.Close
	}
	return uc.engine.Machine().Status(price)
}

// RiskStatus reports the portfolio risk grading from the engine.
func (uc *LiveSignalUseCase) RiskStatus() models.RiskStatus {
	uc.mu.Lock()
	rows := uc.lastRows
	uc.mu.Unlock()
	return uc.engine.RiskStatus(rows)
}
