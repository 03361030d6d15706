package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/bobmcallan/stock-compare/internal/models"
)

// MarketDataProvider fetches daily price history for a ticker.
// from is inclusive and to is exclusive, matching the dashboard's date inputs.
type MarketDataProvider interface {
	Name() string
	GetHistory(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error)
}

// Provider-independent failures a MarketDataProvider may wrap.
var (
	ErrNoData       = errors.New("no price data for the requested range")
	ErrInvalidRange = errors.New("invalid date range")
)
