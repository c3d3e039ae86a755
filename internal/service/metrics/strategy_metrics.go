package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpulse",
			Subsystem: "strategy",
			Name:      "signals_total",
			Help:      "Signals emitted by direction",
		},
		[]string{"symbol", "direction"},
	)

	FilterVetoes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quantpulse",
			Subsystem: "strategy",
			Name:      "filter_vetoes_total",
			Help:      "Signal vetoes by filter",
		},
		[]string{"filter"},
	)

	CompositeScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "quantpulse",
			Subsystem: "strategy",
			Name:      "composite_score",
			Help:      "Latest composite signal score",
		},
		[]string{"symbol"},
	)

	BacktestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "quantpulse",
			Subsystem: "backtest",
			Name:      "run_seconds",
			Help:      "Wall time of backtest runs",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"symbol"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(SignalsEmitted, FilterVetoes, CompositeScore, BacktestDuration)
	})
}
