package indicators

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		period int
		want   float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 5, 3},
		{"tail_window", []float64{10, 10, 1, 2, 3}, 3, 2},
		{"too_short", []float64{1, 2}, 3, 0},
		{"zero_period", []float64{1, 2, 3}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SMA(tt.values, tt.period); got != tt.want {
				t.Fatalf("SMA=%v, expected %v", got, tt.want)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	if got := PercentChange([]float64{100, 97}); got != -3 {
		t.Fatalf("PercentChange=%v, expected -3", got)
	}
	if got := PercentChange([]float64{100}); got != 0 {
		t.Fatalf("PercentChange on single value = %v, expected 0", got)
	}
}

func TestRSIExtremes(t *testing.T) {
	// Monotonic rise has no losses: RSI pins at 100.
	rising := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	if got := RSI(rising, 14); got != 100 {
		t.Fatalf("RSI rising=%v, expected 100", got)
	}

	// Monotonic fall has no gains: RSI pins at 0.
	falling := make([]float64, 15)
	for i := range falling {
		falling[i] = float64(100 - i)
	}
	if got := RSI(falling, 14); got != 0 {
		t.Fatalf("RSI falling=%v, expected 0", got)
	}
}

func TestRSIBalanced(t *testing.T) {
	// Alternating equal gains and losses should settle near 50.
	values := make([]float64, 0, 30)
	price := 100.0
	for i := 0; i < 30; i++ {
		values = append(values, price)
		if i%2 == 0 {
			price += 1
		} else {
			price -= 1
		}
	}
	got := RSI(values, 14)
	if math.Abs(got-50) > 10 {
		t.Fatalf("RSI balanced=%v, expected near 50", got)
	}
}

func TestRSITooShort(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != 0 {
		t.Fatalf("RSI short window=%v, expected 0", got)
	}
}
