package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/usecase"
	pkgch "QuantPulse/pkg/clickhouse"
	"QuantPulse/pkg/config"
	xhttp "QuantPulse/pkg/http"
	pkgkafka "QuantPulse/pkg/kafka"
	applogger "QuantPulse/pkg/logger"
	pkgqueue "QuantPulse/pkg/queue"

	"github.com/labstack/echo/v4"
)

// multiHandler fans RegisterRoutes out to every mounted handler.
type multiHandler []xhttp.Handler

func (m multiHandler) RegisterRoutes(e *echo.Echo) {
	for _, h := range m {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	collector *usecase.BarCollector
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	chClient  *pkgch.Client
	live      *usecase.LiveSignalUseCase
	worker    *pkgqueue.RedisQueue

	httpServer *xhttp.Server
	handlers   []xhttp.Handler
	BarProc    *usecase.BarProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	live *usecase.LiveSignalUseCase,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		live:      live,
	}
}

// AddHTTPHandler mounts an HTTP handler on the server.
func (a *App) AddHTTPHandler(h xhttp.Handler) { a.handlers = append(a.handlers, h) }

// SetQueueWorker injects the async backtest worker.
func (a *App) SetQueueWorker(q *pkgqueue.RedisQueue) { a.worker = q }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	a.httpServer = xhttp.NewServer(multiHandler(a.handlers),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("symbols", a.cfg.Binance.Symbols))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start async backtest worker if configured
	if a.worker != nil {
		if err := a.worker.Start(); err != nil {
			l.Error("queue worker start error", applogger.Error(err))
		} else {
			l.Info("backtest queue worker started")
		}
	}

	// Signal loop: recompute and publish the latest signal every interval
	if a.live != nil {
		go a.signalLoop(ctx, l)
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// signalLoop periodically evaluates the strategy over fresh history. The
// cadence defaults to one minute so a closed candle is picked up promptly.
func (a *App) signalLoop(ctx context.Context, l *applogger.Logger) {
	interval := a.cfg.Signal.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	n := a.cfg.Signal.HistoryBars
	if n <= 0 {
		n = 600
	}
	tf := domrepo.NormalizeTimeframe(a.cfg.Binance.Timeframe)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sym := range a.cfg.Binance.Symbols {
				if _, err := a.live.ComputeLatest(ctx, sym, n, tf); err != nil {
					l.Warn("signal loop error", applogger.String("symbol", sym), applogger.Error(err))
				}
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue worker
	if a.worker != nil {
		if err := a.worker.Stop(shutdownCtx); err != nil {
			l.Warn("queue worker stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close bar processor resources (publisher/storage)
	if a.BarProc != nil {
		a.BarProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
