package service

import (
	"context"

	"QuantPulse/internal/domain/models"
)

// SentimentSource fetches the external market-sentiment inputs. Fetch must
// degrade to the neutral reading rather than fail the caller when the
// upstream is unavailable.
type SentimentSource interface {
	Fetch(ctx context.Context) (models.SentimentReading, error)
}
