package accrual

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRatePerSecond(t *testing.T) {
	tests := []struct {
		name   string
		salary string
		want   string
	}{
		{"one per second", "31557600", "1"},
		{"seven per second", "220903200", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := RatePerSecond(decimal.RequireFromString(tt.salary))
			if !rate.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("rate = %s, want %s", rate, tt.want)
			}
		})
	}
}

func TestRatePerSecondRoundTrips(t *testing.T) {
	// Typical salaries divide inexactly; over a full year the drift must
	// stay under a cent.
	salary := decimal.NewFromInt(120_000)
	yearly := RatePerSecond(salary).Mul(SecondsPerYear)
	if salary.Sub(yearly).Abs().GreaterThan(decimal.RequireFromString("0.01")) {
		t.Fatalf("rate * seconds_per_year = %s, want ~%s", yearly, salary)
	}
}

func TestEarnedExactForRateMultiples(t *testing.T) {
	for _, k := range []int64{1, 2, 5} {
		salary := SecondsPerYear.Mul(decimal.NewFromInt(k))
		rate := RatePerSecond(salary)

		for _, secs := range []int64{1, 100, 86400} {
			now := t0.Add(time.Duration(secs) * time.Second)
			got := Earned(rate, t0, now)
			want := decimal.NewFromInt(k * secs)
			if !got.Equal(want) {
				t.Fatalf("earned(k=%d, t=%ds) = %s, want %s", k, secs, got, want)
			}
		}
	}
}

func TestEarnedClampsBeforeStart(t *testing.T) {
	rate := decimal.NewFromInt(1)
	got := Earned(rate, t0, t0.Add(-30*time.Second))
	if !got.IsZero() {
		t.Fatalf("earned before start = %s, want 0", got)
	}
	if got := Earned(rate, t0, t0); !got.IsZero() {
		t.Fatalf("earned at start = %s, want 0", got)
	}
}

func TestAvailable(t *testing.T) {
	rate := decimal.NewFromInt(1)

	tests := []struct {
		name      string
		elapsed   time.Duration
		withdrawn string
		want      string
	}{
		{"nothing withdrawn", 100 * time.Second, "0", "100"},
		{"partially withdrawn", 100 * time.Second, "60", "40"},
		{"fully withdrawn", 100 * time.Second, "100", "0"},
		{"withdrawn ahead of accrual", 100 * time.Second, "150", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Available(rate, t0, decimal.RequireFromString(tt.withdrawn), t0.Add(tt.elapsed))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("available = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAvailableRoundsHalfUpAtCents(t *testing.T) {
	// 0.005/s for 1s leaves a half-cent, which rounds up.
	rate := decimal.RequireFromString("0.005")
	got := Available(rate, t0, decimal.Zero, t0.Add(1*time.Second))
	if want := decimal.RequireFromString("0.01"); !got.Equal(want) {
		t.Fatalf("available = %s, want %s", got, want)
	}
}
