package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"QuantPulse/internal/backtest"
	"QuantPulse/internal/domain/repository"
	domsvc "QuantPulse/internal/domain/service"
	"QuantPulse/internal/handler/api"
	mid "QuantPulse/internal/middleware"
	internalrepo "QuantPulse/internal/repository"
	"QuantPulse/internal/service/binance"
	icache "QuantPulse/internal/service/cache"
	"QuantPulse/internal/service/sentiment"
	"QuantPulse/internal/services/scoring"
	"QuantPulse/internal/strategy"
	"QuantPulse/internal/usecase"
	pkgcache "QuantPulse/pkg/cache"
	pkgch "QuantPulse/pkg/clickhouse"
	"QuantPulse/pkg/config"
	pkgkafka "QuantPulse/pkg/kafka"
	applogger "QuantPulse/pkg/logger"
	"QuantPulse/pkg/metrics"
	pkgqueue "QuantPulse/pkg/queue"
	"QuantPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the shared application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	barCols := "(ts DateTime, symbol String, open Float64, high Float64, low Float64, close Float64, volume Float64, source String, event_id String)"
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS quantpulse",
		"CREATE TABLE IF NOT EXISTS quantpulse.bars_1m " + barCols + " ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS quantpulse.bars_5m " + barCols + " ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS quantpulse.bars_1h " + barCols + " ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS quantpulse.bars_4h " + barCols + " ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS quantpulse.bars_1d " + barCols + " ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS quantpulse.trade_log (ts DateTime, symbol String, action String, side Int8, price Float64, notional Float64, cash Float64, pnl Float64, reason String, base_score Float64, trend_score Float64, score Float64) ENGINE=MergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBarStorage creates ClickHouse storage for the stream timeframe.
func ProvideBarStorage(chClient *pkgch.Client, cfg *config.Config) repository.BarStorage {
	tf := repository.NormalizeTimeframe(cfg.Binance.Timeframe)
	table := fmt.Sprintf("%s.bars_%s", cfg.ClickHouse.Database, tf)
	return internalrepo.NewClickHouseBarStorage(chClient.DB(), table)
}

// ProvideBarPublisher creates Kafka publisher repository.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.BarPublisher {
	return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	topic := cfg.Kafka.SignalsTopic
	if topic == "" {
		topic = "quantpulse.signals"
	}
	return internalrepo.NewKafkaSignalPublisher(producer, topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler registers handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.BarStorage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideBinanceStream creates the Binance kline WebSocket stream.
func ProvideBinanceStream(cfg *config.Config) repository.MarketStream {
	return binance.New(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		repository.NormalizeTimeframe(cfg.Binance.Timeframe),
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideBarProcessor creates the bar processor use case.
func ProvideBarProcessor(
	pub repository.BarPublisher,
	store repository.BarStorage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideBarCollector creates the bar collector use case.
func ProvideBarCollector(
	stream repository.MarketStream,
	processor *usecase.BarProcessor,
	metrics repository.Metrics,
) *usecase.BarCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewBarPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(stream, processor, metrics, pipe)
}

// ProvideBarStore creates the read-side ClickHouse bar store.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideRedisClient creates a Redis client, nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideBytesCache creates the shared cache. With Redis enabled a layered
// memory+Redis cache backs it, otherwise a process-local TTL cache.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
		)
		if err == nil {
			return icache.NewServiceCache(pkgcache.NewLayeredCache(rc))
		}
		// fall through to the local cache when redis is unreachable
	}
	return icache.NewTTLCache()
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideSentimentSource creates the greed/VIX sentiment fetcher.
func ProvideSentimentSource(cfg *config.Config, cache icache.BytesCache, l *applogger.Logger) domsvc.SentimentSource {
	return sentiment.New(
		cfg.Sentiment.GreedURL,
		cfg.Sentiment.VIXURL,
		cfg.Sentiment.Timeout,
		sentiment.WithCache(cache),
		sentiment.WithTTL(cfg.Sentiment.CacheTTL),
		sentiment.WithLogger(l),
	)
}

// ProvideScoringBuilder creates the feature/score builder.
func ProvideScoringBuilder(cfg *config.Config) *scoring.Builder {
	return scoring.NewBuilder(cfg.Strategy.Features)
}

// ProvideStrategyEngine creates the live strategy session.
func ProvideStrategyEngine(cfg *config.Config, l *applogger.Logger) (*strategy.Engine, error) {
	return strategy.NewEngine(cfg.Strategy, l)
}

// ProvideLiveSignalUseCase creates the live signal use case.
func ProvideLiveSignalUseCase(
	store repository.BarStore,
	sent domsvc.SentimentSource,
	builder *scoring.Builder,
	engine *strategy.Engine,
	pub repository.SignalPublisher,
	l *applogger.Logger,
) *usecase.LiveSignalUseCase {
	return usecase.NewLiveSignalUseCase(store, sent, builder, engine, pub, l)
}

// ProvideBarsUseCase creates the candle history use case.
func ProvideBarsUseCase(store repository.BarStore) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store)
}

// ProvideTradeLog creates the ClickHouse trade log.
func ProvideTradeLog(chClient *pkgch.Client, cfg *config.Config) repository.TradeLog {
	table := fmt.Sprintf("%s.trade_log", cfg.ClickHouse.Database)
	return internalrepo.NewCHTradeLog(chClient.DB(), table)
}

// ProvideBacktestUseCase creates the backtest use case. With Redis enabled
// submissions can also run async through the queue publisher.
func ProvideBacktestUseCase(
	cfg *config.Config,
	store repository.BarStore,
	cache icache.BytesCache,
	trades repository.TradeLog,
	rdb *redis.Client,
	l *applogger.Logger,
) *usecase.BacktestUseCase {
	btCfg := backtest.Config{
		InitialCash: cfg.Backtest.InitialCash,
		FeeRate:     cfg.Backtest.FeeRate,
		Strategy:    cfg.Strategy,
	}
	var pub *pkgqueue.RedisQueue
	if rdb != nil {
		pub = pkgqueue.NewRedisPublisher(l, rdb)
	}
	return usecase.NewBacktestUseCase(store, cache, pub, trades, btCfg, l)
}

// ProvideBacktestWorker creates the queue consumer for async backtests. It
// is nil when Redis is disabled and submissions then run synchronously only.
func ProvideBacktestWorker(rdb *redis.Client, uc *usecase.BacktestUseCase, l *applogger.Logger) *pkgqueue.RedisQueue {
	if rdb == nil {
		return nil
	}
	return pkgqueue.NewRedisConsumer(l, &pkgqueue.QueueConfig{Workers: 2}, rdb, []pkgqueue.Job{
		usecase.NewBacktestJob(uc),
	})
}

// ProvideSignalsHandler creates the live strategy HTTP handler.
func ProvideSignalsHandler(
	l *applogger.Logger,
	live *usecase.LiveSignalUseCase,
	bars *usecase.BarsUseCase,
	cache icache.BytesCache,
) *api.SignalsHandler {
	h := api.NewSignalsHandler(l, live, bars)
	h.SetCache(cache)
	return h
}

// ProvideBacktestsHandler creates the backtest HTTP handler.
func ProvideBacktestsHandler(l *applogger.Logger, uc *usecase.BacktestUseCase) *api.BacktestsHandler {
	return api.NewBacktestsHandler(l, uc)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	live *usecase.LiveSignalUseCase,
	signals *api.SignalsHandler,
	backtests *api.BacktestsHandler,
	worker *pkgqueue.RedisQueue,
) *server.App {
	// Attach hook to consumer: example NoopHook for now; can be replaced via config
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient, live)
	app.AddHTTPHandler(signals)
	app.AddHTTPHandler(backtests)
	if worker != nil {
		app.SetQueueWorker(worker)
	}
	// attach bar processor to app for closing resources via collector
	if collector != nil {
		app.BarProc = collector.Processor()
	}
	return app
}
