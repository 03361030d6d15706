package chart

import (
	"bytes"
	"fmt"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stock-compare/internal/models"
)

// Default PNG dimensions.
const (
	DefaultWidth  = 900
	DefaultHeight = 450
)

var (
	closeColor   = drawing.ColorFromHex("1f77b4")
	risingColor  = drawing.ColorFromHex("26a69a")
	fallingColor = drawing.ColorFromHex("ef5350")
	cyan         = drawing.ColorFromHex("00ffff")
	magenta      = drawing.ColorFromHex("ff00ff")
)

// RenderPNG draws series as a PNG with the same semantics as BuildFigure.
// Non-positive dimensions fall back to the defaults.
func RenderPNG(series *models.PriceSeries, chartType models.ChartType, width, height int) ([]byte, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("render %s chart: empty series", chartType)
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	dates := series.Dates()
	closes := series.Closes()
	// Half a day of padding keeps the first and last bodies inside the plot
	pad := gochart.TimeToFloat64(dates[0].Add(12*time.Hour)) - gochart.TimeToFloat64(dates[0])

	graph := gochart.Chart{
		Title:  series.Ticker + " " + chartType.Label() + " Chart",
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeDateValueFormatter,
			Range: &gochart.ContinuousRange{
				Min: gochart.TimeToFloat64(dates[0]) - pad,
				Max: gochart.TimeToFloat64(dates[len(dates)-1]) + pad,
			},
		},
		YAxis: gochart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
	}

	switch chartType {
	case models.ChartBar:
		_, hi := priceBounds(series, false)
		graph.YAxis.Range = &gochart.ContinuousRange{Min: 0, Max: hi * 1.05}
		graph.Series = []gochart.Series{&columnSeries{name: "Close", dates: dates, values: closes, color: closeColor}}

	case models.ChartCandlestick:
		lo, hi := priceBounds(series, true)
		span := hi - lo
		if span == 0 {
			span = math.Max(math.Abs(hi)*0.01, 1)
		}
		graph.YAxis.Range = &gochart.ContinuousRange{Min: lo - span*0.05, Max: hi + span*0.05}
		graph.Series = []gochart.Series{&candleSeries{name: series.Ticker, bars: series.Bars}}
		if s, ok := maSeries("07-day MA", dates, MovingAverage(closes, ShortWindow), cyan); ok {
			graph.Series = append(graph.Series, s)
		}
		if s, ok := maSeries("20-day MA", dates, MovingAverage(closes, LongWindow), magenta); ok {
			graph.Series = append(graph.Series, s)
		}
		graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	default:
		lo, hi := priceBounds(series, false)
		span := hi - lo
		if span == 0 {
			span = math.Max(math.Abs(hi)*0.01, 1)
		}
		graph.YAxis.Range = &gochart.ContinuousRange{Min: lo - span*0.05, Max: hi + span*0.05}
		if len(dates) == 1 {
			// A one-point line draws nothing, so show it as a column
			graph.Series = []gochart.Series{&columnSeries{name: "Close", dates: dates, values: closes, color: closeColor}}
		} else {
			graph.Series = []gochart.Series{gochart.TimeSeries{
				Name:    "Close",
				Style:   gochart.Style{StrokeColor: closeColor, StrokeWidth: 2},
				XValues: dates,
				YValues: closes,
			}}
		}
	}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart for %s: %w", chartType, series.Ticker, err)
	}
	return buf.Bytes(), nil
}

// priceBounds returns the min and max close, or low/high when useRange is set.
func priceBounds(series *models.PriceSeries, useRange bool) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range series.Bars {
		l, h := b.Close, b.Close
		if useRange {
			l, h = b.Low, b.High
		}
		lo = math.Min(lo, l)
		hi = math.Max(hi, h)
	}
	return lo, hi
}

// maSeries drops the NaN warm-up so go-chart only sees real points.
func maSeries(name string, dates []time.Time, ma []float64, color drawing.Color) (gochart.TimeSeries, bool) {
	ts := gochart.TimeSeries{
		Name:  name,
		Style: gochart.Style{StrokeColor: color, StrokeWidth: 1.5},
	}
	for i, v := range ma {
		if math.IsNaN(v) {
			continue
		}
		ts.XValues = append(ts.XValues, dates[i])
		ts.YValues = append(ts.YValues, v)
	}
	return ts, len(ts.XValues) > 1
}
