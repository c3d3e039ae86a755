package sentiment

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"QuantPulse/internal/domain/models"
	domsvc "QuantPulse/internal/domain/service"
	icache "QuantPulse/internal/service/cache"
	"QuantPulse/internal/service/ratelimit"
	xhttp "QuantPulse/pkg/http"
	applogger "QuantPulse/pkg/logger"
)

const cacheKey = "sentiment:latest"

// Fetcher pulls the greed index and a VIX-like fear value over HTTP and
// caches the combined reading. Upstream failures degrade to the neutral
// reading so the strategy keeps running.
type Fetcher struct {
	greedURL string
	vixURL   string
	ttl      time.Duration
	client   *xhttp.Client
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	l        *applogger.Logger
}

// Option tunes the fetcher.
type Option func(*Fetcher)

// WithCache sets the reading cache.
func WithCache(c icache.BytesCache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithTTL sets the cache lifetime of one reading.
func WithTTL(ttl time.Duration) Option {
	return func(f *Fetcher) {
		if ttl > 0 {
			f.ttl = ttl
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) Option {
	return func(f *Fetcher) { f.l = l }
}

// New creates a sentiment fetcher.
func New(greedURL, vixURL string, timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Fetcher{
		greedURL: greedURL,
		vixURL:   vixURL,
		ttl:      time.Hour,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:    icache.NewTTLCache(),
		rl:       ratelimit.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ domsvc.SentimentSource = (*Fetcher)(nil)

// Fetch returns the cached reading when fresh, otherwise refreshes from the
// upstream endpoints. Missing or failing endpoints fall back to the neutral
// values; Fetch itself never fails the caller.
func (f *Fetcher) Fetch(ctx context.Context) (models.SentimentReading, error) {
	if b, ok, err := f.cache.GetBytes(cacheKey); err == nil && ok {
		var r models.SentimentReading
		if err := json.Unmarshal(b, &r); err == nil {
			return r, nil
		}
	}

	// at most one upstream refresh per 10s, whatever the caller cadence
	if !f.rl.Allow("sentiment_fetch", 1, 0.1) {
		return models.NeutralSentiment(), nil
	}

	r := models.NeutralSentiment()
	r.FetchedAt = time.Now().UTC()

	if g, err := f.fetchGreed(ctx); err == nil {
		r.GreedValue = g
	} else if f.l != nil {
		f.l.Warn("greed index fetch failed, using neutral", applogger.Error(err))
	}
	if v, err := f.fetchVIX(ctx); err == nil {
		r.VIXValue = v
	} else if f.l != nil {
		f.l.Warn("vix fetch failed, using neutral", applogger.Error(err))
	}

	if b, err := json.Marshal(r); err == nil {
		if err := f.cache.SetBytes(cacheKey, b, f.ttl); err != nil && f.l != nil {
			f.l.Warn("sentiment cache set failed", applogger.Error(err))
		}
	}
	return r, nil
}

// greedResponse matches the alternative.me fear-and-greed payload.
type greedResponse struct {
	Data []struct {
		Value string `json:"value"`
	} `json:"data"`
}

func (f *Fetcher) fetchGreed(ctx context.Context) (float64, error) {
	if f.greedURL == "" {
		return 0, errEndpointUnset
	}
	var res greedResponse
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    f.greedURL,
	}, &res)
	if err != nil {
		return 0, err
	}
	if len(res.Data) == 0 {
		return 0, errEmptyPayload
	}
	return strconv.ParseFloat(res.Data[0].Value, 64)
}

// vixResponse is the minimal quote shape of the fear-index endpoint.
type vixResponse struct {
	Value float64 `json:"value"`
}

func (f *Fetcher) fetchVIX(ctx context.Context) (float64, error) {
	if f.vixURL == "" {
		return 0, errEndpointUnset
	}
	var res vixResponse
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    f.vixURL,
	}, &res)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

type fetchError string

func (e fetchError) Error() string { return string(e) }

const (
	errEndpointUnset fetchError = "sentiment endpoint not configured"
	errEmptyPayload  fetchError = "sentiment payload empty"
)
