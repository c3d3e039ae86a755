package middleware

import (
	"context"
	"fmt"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
)

type fakeMetrics struct {
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: map[string]int{}} }

func (m *fakeMetrics) RecordMessageSent(backend, symbol string) {}
func (m *fakeMetrics) RecordError(kind string)                  { m.errors[kind]++ }
func (m *fakeMetrics) RecordLastPrice(symbol string, p float64) {}
func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}

type fakeProc struct {
	bars []*models.Bar
	err  error
}

func (p *fakeProc) Process(ctx context.Context, b *models.Bar) error {
	if p.err != nil {
		return p.err
	}
	p.bars = append(p.bars, b)
	return nil
}

func validBar(ts time.Time) *models.Bar {
	return &models.Bar{
		Time:   ts,
		Symbol: "ETHUSDT",
		Open:   100,
		High:   101,
		Low:    99,
		Close:  100.5,
		Volume: 10,
	}
}

func TestValidateBar(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := ValidateBar(validBar(ts)); err != nil {
		t.Fatalf("valid bar rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*models.Bar)
	}{
		{"empty symbol", func(b *models.Bar) { b.Symbol = "" }},
		{"zero time", func(b *models.Bar) { b.Time = time.Time{} }},
		{"non-positive close", func(b *models.Bar) { b.Close = 0 }},
		{"negative volume", func(b *models.Bar) { b.Volume = -1 }},
		{"high below low", func(b *models.Bar) { b.High = 98 }},
		{"close above high", func(b *models.Bar) { b.Close = 102 }},
	}
	for _, tc := range cases {
		b := validBar(ts)
		tc.mutate(b)
		if err := ValidateBar(b); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}

	if err := ValidateBar(nil); err == nil {
		t.Fatalf("nil bar: expected error")
	}
}

func TestPipelineForwardsValidBar(t *testing.T) {
	proc := &fakeProc{}
	p := NewBarPipeline(proc, newFakeMetrics())

	b := validBar(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err := p.Process(context.Background(), b); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.bars) != 1 {
		t.Fatalf("expected 1 forwarded bar, got %d", len(proc.bars))
	}
}

func TestPipelineRejectsInvalidBar(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	p := NewBarPipeline(proc, m)

	b := validBar(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	b.Low = 200
	if err := p.Process(context.Background(), b); err == nil {
		t.Fatalf("expected validation error")
	}
	if len(proc.bars) != 0 {
		t.Fatalf("invalid bar reached downstream")
	}
	if m.errors["pipeline_validate"] != 1 {
		t.Fatalf("expected pipeline_validate error, got %v", m.errors)
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &fakeProc{}
	m := newFakeMetrics()
	p := NewBarPipeline(proc, m, WithMaxRPS(1))

	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := p.Process(context.Background(), validBar(ts)); err != nil {
		t.Fatalf("first bar: %v", err)
	}
	// second bar within the same second is dropped silently
	if err := p.Process(context.Background(), validBar(ts.Add(time.Millisecond))); err != nil {
		t.Fatalf("throttled bar should not error: %v", err)
	}
	if len(proc.bars) != 1 {
		t.Fatalf("expected 1 bar through, got %d", len(proc.bars))
	}
	if m.errors["pipeline_throttle"] != 1 {
		t.Fatalf("expected throttle counter, got %v", m.errors)
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &fakeProc{err: fmt.Errorf("backend down")}
	m := newFakeMetrics()
	p := NewBarPipeline(proc, m, WithBufferSize(4))

	b := validBar(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	if err := p.Process(context.Background(), b); err == nil {
		t.Fatalf("expected downstream error")
	}
	if got := len(p.bufCh); got != 1 {
		t.Fatalf("expected 1 buffered bar, got %d", got)
	}
}

func TestPipelineTransform(t *testing.T) {
	proc := &fakeProc{}
	p := NewBarPipeline(proc, newFakeMetrics(), WithTransform(func(b *models.Bar) *models.Bar {
		c := *b
		c.Symbol = "ETH-USD"
		return &c
	}))

	if err := p.Process(context.Background(), validBar(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.bars[0].Symbol != "ETH-USD" {
		t.Fatalf("transform not applied, symbol %s", proc.bars[0].Symbol)
	}
}
