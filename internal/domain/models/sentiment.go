package models

import "time"

// SentimentReading is one externally fetched market-sentiment sample: a
// 0-100 greed index and a VIX-like fear value. Readings are cached by the
// fetching layer; FetchedAt records the upstream fetch time, not the cache
// hit time.
type SentimentReading struct {
	GreedValue float64   `json:"greed_value"`
	VIXValue   float64   `json:"vix_value"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NeutralSentiment is the fallback when no external reading is available.
func NeutralSentiment() SentimentReading {
	return SentimentReading{GreedValue: 50, VIXValue: 20}
}
