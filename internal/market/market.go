// Package market selects and configures the market-data provider.
package market

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/market/eodhd"
	"github.com/bobmcallan/stock-compare/internal/market/yahoo"
)

// NormalizeTicker trims whitespace and upper-cases a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// NewProvider builds the provider named by cfg.Provider.
// The EODHD key is resolved from env, then the KV store, then config.
func NewProvider(ctx context.Context, cfg config.MarketConfig, kv interfaces.KeyValueStorage, logger *common.Logger) (interfaces.MarketDataProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", yahoo.ProviderName:
		return yahoo.NewProvider(logger), nil

	case eodhd.ProviderName:
		apiKey, err := common.ResolveAPIKey(ctx, kv, common.KeyEODHD, cfg.EODHD.APIKey)
		if err != nil {
			return nil, fmt.Errorf("eodhd provider: %w", err)
		}
		client := eodhd.NewClient(apiKey,
			eodhd.WithBaseURL(cfg.EODHD.BaseURL),
			eodhd.WithHTTPClient(&http.Client{Timeout: cfg.GetTimeout()}),
			eodhd.WithRateLimit(cfg.EODHD.RateLimit),
			eodhd.WithUserAgent(config.UserAgent()),
			eodhd.WithLogger(logger),
		)
		return eodhd.NewProvider(client, cfg.EODHD.Exchange), nil

	default:
		return nil, fmt.Errorf("unknown market provider %q", cfg.Provider)
	}
}
