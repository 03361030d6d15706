package chart

import (
	"fmt"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stock-compare/internal/models"
)

// bodyWidth returns the pixel width of one day's column or candle body.
func bodyWidth(n int, canvasBox gochart.Box) int {
	if n <= 0 {
		return 1
	}
	w := int(float64(canvasBox.Width()) / float64(n+1) * 0.7)
	if w < 1 {
		return 1
	}
	return w
}

// candleSeries draws OHLC candles: a wick from low to high and a body from
// open to close, green when the close is at or above the open.
type candleSeries struct {
	name string
	bars []models.PriceBar
}

var _ gochart.Series = (*candleSeries)(nil)

func (c *candleSeries) GetName() string             { return c.name }
func (c *candleSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (c *candleSeries) Len() int                    { return len(c.bars) }
func (c *candleSeries) GetStyle() gochart.Style {
	return gochart.Style{StrokeColor: risingColor, FillColor: risingColor, StrokeWidth: 1}
}

// GetBoundedValues reports each bar's low/high so range computation covers the wicks.
func (c *candleSeries) GetBoundedValues(index int) (x, y1, y2 float64) {
	b := c.bars[index]
	return gochart.TimeToFloat64(b.Date), b.Low, b.High
}

func (c *candleSeries) Validate() error {
	if len(c.bars) == 0 {
		return fmt.Errorf("candle series %q has no bars", c.name)
	}
	return nil
}

func (c *candleSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, _ gochart.Style) {
	half := bodyWidth(len(c.bars), canvasBox) / 2

	for _, b := range c.bars {
		color := risingColor
		if b.Close < b.Open {
			color = fallingColor
		}
		x := canvasBox.Left + xrange.Translate(gochart.TimeToFloat64(b.Date))
		yHigh := canvasBox.Bottom - yrange.Translate(b.High)
		yLow := canvasBox.Bottom - yrange.Translate(b.Low)
		yOpen := canvasBox.Bottom - yrange.Translate(b.Open)
		yClose := canvasBox.Bottom - yrange.Translate(b.Close)

		r.SetStrokeColor(color)
		r.SetStrokeWidth(1)
		r.MoveTo(x, yHigh)
		r.LineTo(x, yLow)
		r.Stroke()

		top, bottom := yOpen, yClose
		if top > bottom {
			top, bottom = bottom, top
		}
		if bottom == top {
			bottom = top + 1
		}
		fillRect(r, x-half, top, x+half, bottom, color)
	}
}

// columnSeries draws one column per date from the bottom of the plot up to the value.
type columnSeries struct {
	name   string
	dates  []time.Time
	values []float64
	color  drawing.Color
}

var _ gochart.Series = (*columnSeries)(nil)

func (c *columnSeries) GetName() string             { return c.name }
func (c *columnSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (c *columnSeries) Len() int                    { return len(c.values) }
func (c *columnSeries) GetStyle() gochart.Style {
	return gochart.Style{StrokeColor: c.color, FillColor: c.color}
}

func (c *columnSeries) GetBoundedValues(index int) (x, y1, y2 float64) {
	return gochart.TimeToFloat64(c.dates[index]), 0, c.values[index]
}

func (c *columnSeries) Validate() error {
	if len(c.dates) != len(c.values) {
		return fmt.Errorf("column series %q: %d dates for %d values", c.name, len(c.dates), len(c.values))
	}
	return nil
}

func (c *columnSeries) Render(r gochart.Renderer, canvasBox gochart.Box, xrange, yrange gochart.Range, _ gochart.Style) {
	half := bodyWidth(len(c.values), canvasBox) / 2
	for i, v := range c.values {
		x := canvasBox.Left + xrange.Translate(gochart.TimeToFloat64(c.dates[i]))
		y := canvasBox.Bottom - yrange.Translate(v)
		fillRect(r, x-half, y, x+half, canvasBox.Bottom, c.color)
	}
}

func fillRect(r gochart.Renderer, left, top, right, bottom int, color drawing.Color) {
	if right <= left {
		right = left + 1
	}
	r.SetFillColor(color)
	r.SetStrokeColor(color)
	r.SetStrokeWidth(0)
	r.MoveTo(left, top)
	r.LineTo(right, top)
	r.LineTo(right, bottom)
	r.LineTo(left, bottom)
	r.LineTo(left, top)
	r.Close()
	r.FillStroke()
}
