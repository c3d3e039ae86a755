package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"QuantPulse/internal/backtest"
	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	icache "QuantPulse/internal/service/cache"
	smetrics "QuantPulse/internal/service/metrics"
	"QuantPulse/internal/services/scoring"
	pkgqueue "QuantPulse/pkg/queue"
	"QuantPulse/pkg/logger"

	"github.com/google/uuid"
)

const (
	backtestMsgType   = "backtest.run"
	backtestResultTTL = 24 * time.Hour
)

// BacktestUseCase runs strategy backtests over stored candle history. Runs
// are either synchronous or submitted to the Redis queue, with results kept
// in the shared cache keyed by submission ID. Finished-run trades are
// appended to the trade log.
type BacktestUseCase struct {
	store  domrepo.BarStore
	cache  icache.BytesCache
	queue  *pkgqueue.RedisQueue
	trades domrepo.TradeLog
	cfg    backtest.Config
	log    *logger.Logger
}

// NewBacktestUseCase creates a backtest use case. queue may be nil, in which
// case async submission is unavailable; trades may be nil to skip trade-log
// persistence.
func NewBacktestUseCase(
	store domrepo.BarStore,
	cache icache.BytesCache,
	queue *pkgqueue.RedisQueue,
	trades domrepo.TradeLog,
	cfg backtest.Config,
	log *logger.Logger,
) *BacktestUseCase {
	smetrics.Register()
	return &BacktestUseCase{store: store, cache: cache, queue: queue, trades: trades, cfg: cfg, log: log}
}

type RunBacktestParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
}

// Run executes a backtest synchronously over the requested bar range. Each
// run gets a fresh engine so session state never leaks between runs.
func (uc *BacktestUseCase) Run(ctx context.Context, p RunBacktestParams) (*models.BacktestResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}

	bars, err := uc.store.GetBars(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars for %s in range", p.Symbol)
	}

	cfg := uc.cfg
	cfg.Symbol = p.Symbol
	cfg.Timeframe = string(p.Timeframe)
	eng, err := backtest.NewEngine(cfg, uc.log)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	start := time.Now()
	res, err := eng.Run(bars, scoring.SentimentSnapshot{})
	if err != nil {
		return nil, fmt.Errorf("run backtest: %w", err)
	}
	smetrics.BacktestDuration.WithLabelValues(p.Symbol).Observe(time.Since(start).Seconds())
	uc.persistTrades(ctx, res.Trades)
	return res, nil
}

// persistTrades appends finished-run trades to the trade log. Failures do
// not fail the run.
func (uc *BacktestUseCase) persistTrades(ctx context.Context, trades []models.TradeRecord) {
	if uc.trades == nil {
		return
	}
	for i := range trades {
		if err := uc.trades.Append(ctx, &trades[i]); err != nil {
			uc.log.Warn("trade log append failed",
				logger.String("symbol", trades[i].Symbol),
				logger.Error(err),
			)
			return
		}
	}
}

// RecentTrades returns the latest persisted trades for a symbol, newest
// first.
func (uc *BacktestUseCase) RecentTrades(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error) {
	if uc.trades == nil {
		return nil, fmt.Errorf("trade log not configured")
	}
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	return uc.trades.Recent(ctx, symbol, limit)
}

type backtestPayload struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
	TF     string `json:"tf"`
}

// Submit enqueues an async backtest run and returns its submission handle.
func (uc *BacktestUseCase) Submit(ctx context.Context, p RunBacktestParams) (*models.BacktestSubmission, error) {
	if uc.queue == nil {
		return nil, fmt.Errorf("async backtests not configured")
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}

	id := uuid.NewString()
	payload := backtestPayload{
		ID:     id,
		Symbol: p.Symbol,
		From:   p.From.Unix(),
		To:     p.To.Unix(),
		TF:     string(p.Timeframe),
	}
	if err := uc.queue.Enqueue(ctx, backtestMsgType, payload); err != nil {
		return nil, fmt.Errorf("enqueue backtest: %w", err)
	}
	uc.log.Info("backtest submitted",
		logger.String("id", id),
		logger.String("symbol", p.Symbol),
	)
	return &models.BacktestSubmission{ID: id, Status: "queued"}, nil
}

// Result returns the stored result of an async run, or ok=false while the
// run is still pending.
func (uc *BacktestUseCase) Result(id string) (*models.BacktestResult, bool, error) {
	b, ok, err := uc.cache.GetBytes(resultKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	var res models.BacktestResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, false, err
	}
	return &res, true, nil
}

func resultKey(id string) string { return "backtest:result:" + id }

// BacktestJob is the queue worker side of async submissions.
type BacktestJob struct {
	uc *BacktestUseCase
}

func NewBacktestJob(uc *BacktestUseCase) *BacktestJob { return &BacktestJob{uc: uc} }

func (j *BacktestJob) Name() string { return "backtest_run" }

func (j *BacktestJob) Type() string { return backtestMsgType }

func (j *BacktestJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := pkgqueue.ParsePayload[backtestPayload](payload)
	if err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}

	res, err := j.uc.Run(ctx, RunBacktestParams{
		Symbol:    p.Symbol,
		From:      time.Unix(p.From, 0).UTC(),
		To:        time.Unix(p.To, 0).UTC(),
		Timeframe: domrepo.NormalizeTimeframe(p.TF),
	})
	if err != nil {
		return err
	}

	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := j.uc.cache.SetBytes(resultKey(p.ID), b, backtestResultTTL); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	j.uc.log.Info("backtest finished",
		logger.String("id", p.ID),
		logger.String("symbol", p.Symbol),
		logger.Int("trades", res.TotalTrades),
		logger.Any("return_pct", res.ReturnRatio),
	)
	return nil
}

var _ pkgqueue.Job = (*BacktestJob)(nil)
