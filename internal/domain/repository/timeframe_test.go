package repository

import (
	"testing"
	"time"
)

func TestNormalizeTimeframe(t *testing.T) {
	cases := []struct {
		in   string
		want Timeframe
	}{
		{"1m", TF1m},
		{"5m", TF5m},
		{"1h", TF1h},
		{"4h", TF4h},
		{"1d", TF1d},
		{"", TF1h},
		{"3w", TF1h},
	}
	for _, tc := range cases {
		if got := NormalizeTimeframe(tc.in); got != tc.want {
			t.Fatalf("NormalizeTimeframe(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestIsValidTimeframe(t *testing.T) {
	if !IsValidTimeframe(TF4h) {
		t.Fatalf("4h should be valid")
	}
	if IsValidTimeframe(Timeframe("2h")) {
		t.Fatalf("2h should be invalid")
	}
}

func TestTimeframeDuration(t *testing.T) {
	if d := TimeframeDuration(TF1h); d != time.Hour {
		t.Fatalf("1h duration %v", d)
	}
	if d := TimeframeDuration(TF1d); d != 24*time.Hour {
		t.Fatalf("1d duration %v", d)
	}
}

func TestTimeframeHours(t *testing.T) {
	if h := TimeframeHours(TF4h); h != 4 {
		t.Fatalf("4h hours %v", h)
	}
	if h := TimeframeHours(TF1m); h == 0 {
		t.Fatalf("1m hours should be fractional, got %v", h)
	}
}
