package chart

import (
	"math"

	"github.com/bobmcallan/stock-compare/internal/models"
)

// Overlay colours for the moving averages.
const (
	ShortMAColor = "cyan"
	LongMAColor  = "magenta"
)

// Figure is a Plotly-compatible figure description ({data, layout}).
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one Plotly trace. Y values are pointers so gaps encode as null.
type Trace struct {
	Type  string     `json:"type"`
	Mode  string     `json:"mode,omitempty"`
	Name  string     `json:"name"`
	X     []string   `json:"x"`
	Y     []*float64 `json:"y,omitempty"`
	Open  []float64  `json:"open,omitempty"`
	High  []float64  `json:"high,omitempty"`
	Low   []float64  `json:"low,omitempty"`
	Close []float64  `json:"close,omitempty"`
	Line  *Line      `json:"line,omitempty"`
}

// Line styles a scatter trace.
type Line struct {
	Color string `json:"color"`
}

// Layout holds the figure layout.
type Layout struct {
	Title      string `json:"title"`
	ShowLegend bool   `json:"showlegend"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	Height     int    `json:"height,omitempty"`
}

// Axis configures an axis.
type Axis struct {
	Title       string `json:"title,omitempty"`
	Type        string `json:"type,omitempty"`
	RangeSlider *struct {
		Visible bool `json:"visible"`
	} `json:"rangeslider,omitempty"`
}

// BuildFigure describes series as a chart of the given type.
// Line and bar plot the close; candlestick plots OHLC with 7 and 20 day
// moving averages of the close.
func BuildFigure(series *models.PriceSeries, chartType models.ChartType) Figure {
	dates := dateLabels(series)
	closes := series.Closes()

	fig := Figure{
		Layout: Layout{
			Title: series.Ticker + " " + chartType.Label() + " Chart",
			XAxis: Axis{Title: "Date", Type: "date"},
			YAxis: Axis{Title: "Close"},
		},
	}

	switch chartType {
	case models.ChartBar:
		fig.Data = []Trace{{Type: "bar", Name: "Close", X: dates, Y: nullable(closes)}}

	case models.ChartCandlestick:
		n := series.Len()
		opens, highs, lows := make([]float64, n), make([]float64, n), make([]float64, n)
		for i, b := range series.Bars {
			opens[i], highs[i], lows[i] = b.Open, b.High, b.Low
		}
		fig.Layout.ShowLegend = true
		fig.Layout.YAxis.Title = "Price"
		fig.Layout.XAxis.RangeSlider = &struct {
			Visible bool `json:"visible"`
		}{Visible: false}
		fig.Data = []Trace{
			{Type: "candlestick", Name: series.Ticker, X: dates, Open: opens, High: highs, Low: lows, Close: closes},
			{Type: "scatter", Mode: "lines", Name: "07-day MA", X: dates, Y: nullable(MovingAverage(closes, ShortWindow)), Line: &Line{Color: ShortMAColor}},
			{Type: "scatter", Mode: "lines", Name: "20-day MA", X: dates, Y: nullable(MovingAverage(closes, LongWindow)), Line: &Line{Color: LongMAColor}},
		}

	default:
		fig.Data = []Trace{{Type: "scatter", Mode: "lines", Name: "Close", X: dates, Y: nullable(closes)}}
	}

	return fig
}

func dateLabels(series *models.PriceSeries) []string {
	out := make([]string, series.Len())
	for i, d := range series.Dates() {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

// nullable maps NaN to nil so the JSON carries null gaps.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}
