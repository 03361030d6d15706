// Package chart builds the per-ticker charts shown on the dashboard: a
// Plotly figure for the browser and a PNG rendering for downloads and MCP.
package chart

import "math"

// Moving-average windows overlaid on candlestick charts.
const (
	ShortWindow = 7
	LongWindow  = 20
)

// MovingAverage returns the rolling mean of values over window.
// Positions before the window fills are NaN.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
