package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"QuantPulse/internal/backtest"
	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	internalrepo "QuantPulse/internal/repository"
	"QuantPulse/internal/services/scoring"
	pkgch "QuantPulse/pkg/clickhouse"
	"QuantPulse/pkg/config"
	applogger "QuantPulse/pkg/logger"
	"QuantPulse/pkg/util"
)

func main() {
	configPath := flag.String("config", "", "config file path (optional, for clickhouse and strategy overrides)")
	csvPath := flag.String("csv", "", "candle CSV file: ts,open,high,low,close,volume")
	symbol := flag.String("symbol", "ETHUSDT", "symbol")
	tf := flag.String("tf", "1h", "timeframe")
	from := flag.String("from", "", "range start (RFC3339), clickhouse source only")
	to := flag.String("to", "", "range end (RFC3339), clickhouse source only")
	cash := flag.Float64("cash", 0, "initial cash override")
	flag.Parse()

	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	btCfg := backtest.Config{Symbol: *symbol, Timeframe: *tf}

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.LoadWithEnv(*configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		btCfg.InitialCash = cfg.Backtest.InitialCash
		btCfg.FeeRate = cfg.Backtest.FeeRate
		btCfg.Strategy = cfg.Strategy
	}
	if *cash > 0 {
		btCfg.InitialCash = *cash
	}

	var bars []models.Bar
	switch {
	case *csvPath != "":
		bars, err = loadCSV(*csvPath, *symbol)
		if err != nil {
			log.Fatalf("load csv: %v", err)
		}
	case cfg != nil:
		bars, err = loadClickHouse(cfg, l, *symbol, *tf, *from, *to)
		if err != nil {
			log.Fatalf("load clickhouse: %v", err)
		}
	default:
		log.Fatal("either -csv or -config (for clickhouse) is required")
	}

	if len(bars) == 0 {
		log.Fatal("no bars loaded")
	}
	l.Info("bars loaded",
		applogger.String("symbol", *symbol),
		applogger.Int("count", len(bars)),
	)

	eng, err := backtest.NewEngine(btCfg, l)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	res, err := eng.Run(bars, scoring.SentimentSnapshot{})
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}

// loadCSV parses a candle file. The first row is skipped when it looks like
// a header.
func loadCSV(path, symbol string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	bars := make([]models.Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: want 6 columns, got %d", i+1, len(row))
		}
		ts, err := parseTime(row[0])
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		vals := make([]float64, 5)
		for j := 0; j < 5; j++ {
			v, err := strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i+1, j+2, err)
			}
			vals[j] = v
		}
		bars = append(bars, models.Bar{
			Time:   ts,
			Symbol: symbol,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}

func parseTime(s string) (time.Time, error) {
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e11 { // ms
			sec /= 1000
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	if t, ok := util.ParseTime(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func loadClickHouse(cfg *config.Config, l *applogger.Logger, symbol, tf, from, to string) ([]models.Bar, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	toTime := util.ParseTimeDefault(to, time.Now().UTC())
	fromTime := util.ParseTimeDefault(from, toTime.AddDate(0, -6, 0))
	fromTime, toTime = util.AlignFromTo(fromTime, toTime, tf)

	store := internalrepo.NewCHBarStore(client)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	return store.GetBars(ctx, symbol, fromTime, toTime, domrepo.NormalizeTimeframe(tf))
}
