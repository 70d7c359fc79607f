package indicators

// SMA is the simple moving average of the trailing period values, or 0
// when fewer than period values are available.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// PercentChange returns the percentage change from the first to the last
// value of the window.
func PercentChange(values []float64) float64 {
	if len(values) < 2 || values[0] == 0 {
		return 0
	}
	return (values[len(values)-1] - values[0]) / values[0] * 100
}
