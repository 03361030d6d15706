package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/stock-compare/internal/cache"
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/compare"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/llm"
	"github.com/bobmcallan/stock-compare/internal/models"
)

type fakeMarket struct {
	err error
}

func (f *fakeMarket) Name() string { return "fake" }

func (f *fakeMarket) GetHistory(_ context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	s := &models.PriceSeries{Ticker: ticker, Provider: "fake", From: from, To: to}
	price := 100.0
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		s.Bars = append(s.Bars, models.PriceBar{
			Date: d, Open: price, High: price + 2, Low: price - 1, Close: price + 1, AdjClose: price + 1, Volume: 1500000,
		})
		price++
	}
	if len(s.Bars) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, interfaces.ErrNoData)
	}
	return s, nil
}

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Name() llm.ProviderType { return "fake" }
func (f *fakeLLM) Model() string          { return "fake-1" }

func (f *fakeLLM) Complete(_ context.Context, _ []llm.Message) (*llm.Completion, error) {
	return &llm.Completion{Text: f.reply, Provider: "fake", Model: "fake-1"}, nil
}

func (f *fakeLLM) Provider(_ context.Context, _ string) (llm.Provider, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

type memKV map[string]string

func (m memKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", interfaces.ErrKeyNotFound, key)
	}
	return v, nil
}
func (m memKV) Set(_ context.Context, key, value string) error { m[key] = value; return nil }
func (m memKV) Delete(_ context.Context, key string) error     { delete(m, key); return nil }
func (m memKV) GetAll(_ context.Context) (map[string]string, error) {
	return map[string]string(m), nil
}

func newTestService(m *fakeMarket, l *fakeLLM) *compare.Service {
	src := func(context.Context) (interfaces.MarketDataProvider, error) { return m, nil }
	return compare.NewService(src, l, cache.New(time.Minute, 10), time.Second, common.NewSilentLogger())
}

func seedSnapshot(svc *compare.Service) (*models.Snapshot, error) {
	return svc.Compare(context.Background(), models.CompareRequest{
		Ticker1:    "AAPL",
		Ticker2:    "MSFT",
		From:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		ChartType2: models.ChartCandlestick,
	})
}
