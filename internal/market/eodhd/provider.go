package eodhd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/models"
)

// ProviderName identifies EODHD-sourced series.
const ProviderName = "eodhd"

// Provider adapts Client to interfaces.MarketDataProvider.
type Provider struct {
	client   *Client
	exchange string
}

var _ interfaces.MarketDataProvider = (*Provider)(nil)

// NewProvider wraps a client. exchange is the suffix appended to tickers
// that carry none (e.g. "US" turns "AAPL" into "AAPL.US").
func NewProvider(client *Client, exchange string) *Provider {
	return &Provider{client: client, exchange: strings.ToUpper(strings.TrimSpace(exchange))}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return ProviderName }

// Symbol returns the EODHD symbol for a ticker.
func (p *Provider) Symbol(ticker string) string {
	if strings.Contains(ticker, ".") || p.exchange == "" {
		return ticker
	}
	return ticker + "." + p.exchange
}

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

	// EODHD treats "to" as inclusive
	data, err := p.client.GetEOD(ctx, p.Symbol(ticker), WithDateRange(from, to.AddDate(0, 0, -1)))
	if err != nil {
		return nil, fmt.Errorf("fetch %s from eodhd: %w", ticker, err)
	}

	bars := make([]models.PriceBar, 0, len(data))
	for _, d := range data {
		if d.Date.IsZero() || d.Date.Before(from) || !d.Date.Before(to) {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:     d.Date,
			Open:     d.Open,
			High:     d.High,
			Low:      d.Low,
			Close:    d.Close,
			AdjClose: d.AdjustedClose,
			Volume:   d.Volume,
		})
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
