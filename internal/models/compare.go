package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ChartType selects how a series is plotted on the dashboard.
type ChartType string

const (
	ChartLine        ChartType = "line"
	ChartBar         ChartType = "bar"
	ChartCandlestick ChartType = "candlestick"
)

// ChartTypes lists the selectable chart types in display order.
var ChartTypes = []ChartType{ChartLine, ChartBar, ChartCandlestick}

// ParseChartType maps user input to a ChartType, defaulting to line.
func ParseChartType(s string) ChartType {
	switch ChartType(strings.ToLower(strings.TrimSpace(s))) {
	case ChartBar:
		return ChartBar
	case ChartCandlestick:
		return ChartCandlestick
	default:
		return ChartLine
	}
}

// Label returns the display name used in the chart selector.
func (c ChartType) Label() string {
	switch c {
	case ChartBar:
		return "Bar"
	case ChartCandlestick:
		return "Candlestick"
	default:
		return "Line"
	}
}

// CompareRequest carries the dashboard inputs.
type CompareRequest struct {
	Ticker1    string    `json:"ticker1" validate:"required,ticker"`
	Ticker2    string    `json:"ticker2" validate:"required,ticker"`
	From       time.Time `json:"from" validate:"required"`
	To         time.Time `json:"to" validate:"required,gtefield=From"`
	ChartType1 ChartType `json:"chart_type1" validate:"omitempty,oneof=line bar candlestick"`
	ChartType2 ChartType `json:"chart_type2" validate:"omitempty,oneof=line bar candlestick"`
}

// ErrInvalidRequest marks comparison inputs that fail validation.
var ErrInvalidRequest = errors.New("invalid comparison request")

var tickerPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,19}$`)

// ValidTicker reports whether t is an upper-case ticker symbol.
func ValidTicker(t string) bool {
	return tickerPattern.MatchString(t)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		return tickerPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks field rules and that the range does not end in the future.
// now is passed in so callers and tests agree on "today".
func (r *CompareRequest) Validate(now time.Time) error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if r.To.After(today) {
		return fmt.Errorf("%w: end date %s is after today", ErrInvalidRequest, r.To.Format("2006-01-02"))
	}
	return nil
}

// Snapshot is one rendered comparison: the inputs plus both fetched series.
// The export and analysis actions read from it instead of refetching.
type Snapshot struct {
	ID        string         `json:"id"`
	Request   CompareRequest `json:"request"`
	Series1   *PriceSeries   `json:"series1"`
	Series2   *PriceSeries   `json:"series2"`
	CreatedAt time.Time      `json:"created_at"`
}
