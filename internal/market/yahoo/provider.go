// Package yahoo fetches daily price history from Yahoo Finance through finance-go.
package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/models"
)

// ProviderName identifies Yahoo-sourced series.
const ProviderName = "yahoo"

// barIterator is the subset of *chart.Iter used here.
type barIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
	Meta() finance.ChartMeta
}

// fetchFunc starts a chart query.
type fetchFunc func(params *chart.Params) barIterator

func defaultFetch(params *chart.Params) barIterator {
	return chart.Get(params)
}

// Provider implements interfaces.MarketDataProvider over the Yahoo chart API.
// It needs no API key.
type Provider struct {
	fetch  fetchFunc
	logger *common.Logger
}

var _ interfaces.MarketDataProvider = (*Provider)(nil)

// NewProvider creates a Yahoo provider.
func NewProvider(logger *common.Logger) *Provider {
	return &Provider{fetch: defaultFetch, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return ProviderName }

// GetHistory fetches daily bars in [from, to). An empty range is ErrNoData,
// an inverted one ErrInvalidRange.
func (p *Provider) GetHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	switch {
	case to.Before(from):
		return nil, fmt.Errorf("%s %s to %s: %w", ticker, from.Format("2006-01-02"), to.Format("2006-01-02"), interfaces.ErrInvalidRange)
	case to.Equal(from):
		// The end is exclusive, so a same-day range holds no bars
		return nil, fmt.Errorf("%s %s to %s: %w", ticker, from.Format("2006-01-02"), to.Format("2006-01-02"), interfaces.ErrNoData)
	}

	// Bars are stamped at the exchange open, which can fall on the previous
	// UTC day. Ask for a day either side and filter on the exchange date.
	params := &chart.Params{
		Symbol:   ticker,
		Interval: datetime.OneDay,
		Start:    toDatetime(from.AddDate(0, 0, -1)),
		End:      toDatetime(to.AddDate(0, 0, 1)),
	}

	start := time.Now()
	iter := p.fetch(params)

	var bars []models.PriceBar
	var loc *time.Location
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := iter.Bar()
		if b == nil {
			continue
		}
		if loc == nil {
			loc = exchangeLocation(iter.Meta())
		}
		date := barDate(b.Timestamp, loc)
		if date.Before(from) || !date.Before(to) {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:     date,
			Open:     toFloat(b.Open),
			High:     toFloat(b.High),
			Low:      toFloat(b.Low),
			Close:    toFloat(b.Close),
			AdjClose: toFloat(b.AdjClose),
			Volume:   int64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s from yahoo: %w", ticker, err)
	}

	if p.logger != nil {
		p.logger.Debug().
			Str("ticker", ticker).
			Int("bars", len(bars)).
			Dur("elapsed", time.Since(start)).
			Msg("Yahoo chart fetched")
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%s %s to %s: %w", ticker, from.Format("2006-01-02"), to.Format("2006-01-02"), interfaces.ErrNoData)
	}

	return &models.PriceSeries{
		Ticker:    ticker,
		Provider:  ProviderName,
		From:      from,
		To:        to,
		Bars:      bars,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func toDatetime(t time.Time) *datetime.Datetime {
	t = t.UTC()
	return &datetime.Datetime{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// exchangeLocation is the exchange's zone from the chart metadata, falling
// back to its fixed GMT offset when the zone name is unknown.
func exchangeLocation(meta finance.ChartMeta) *time.Location {
	if meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone(meta.Timezone, meta.Gmtoffset)
}

// barDate is the exchange calendar day of a bar timestamp, as a UTC midnight.
func barDate(ts int, loc *time.Location) time.Time {
	t := time.Unix(int64(ts), 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
