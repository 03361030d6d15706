// Package compare orchestrates one dashboard comparison: fetch both series,
// keep them as a snapshot, and serve charts, exports and analysis from it.
package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/stock-compare/internal/cache"
	"github.com/bobmcallan/stock-compare/internal/chart"
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/export"
	"github.com/bobmcallan/stock-compare/internal/interfaces"
	"github.com/bobmcallan/stock-compare/internal/llm"
	"github.com/bobmcallan/stock-compare/internal/market"
	"github.com/bobmcallan/stock-compare/internal/models"
)

// ErrSnapshotNotFound is returned for unknown or expired snapshot IDs.
var ErrSnapshotNotFound = errors.New("comparison not found or expired")

// MarketSource returns the market-data provider to use for a request.
type MarketSource func(ctx context.Context) (interfaces.MarketDataProvider, error)

// LLMSource returns a language-model provider for model ("" for the default).
type LLMSource interface {
	Provider(ctx context.Context, model string) (llm.Provider, error)
}

// Analysis is the language model's comparison of a snapshot.
type Analysis struct {
	SnapshotID string `json:"snapshot_id"`
	Markdown   string `json:"markdown"`
	HTML       string `json:"html"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// Service implements the comparison operations.
type Service struct {
	market     MarketSource
	llm        LLMSource
	store      *cache.SnapshotStore
	llmTimeout time.Duration
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a comparison service.
func NewService(marketSrc MarketSource, llmSrc LLMSource, store *cache.SnapshotStore, llmTimeout time.Duration, logger *common.Logger) *Service {
	return &Service{
		market:     marketSrc,
		llm:        llmSrc,
		store:      store,
		llmTimeout: llmTimeout,
		logger:     logger,
		now:        time.Now,
	}
}

// Normalize upper-cases tickers and fills default chart types.
func Normalize(req models.CompareRequest) models.CompareRequest {
	req.Ticker1 = market.NormalizeTicker(req.Ticker1)
	req.Ticker2 = market.NormalizeTicker(req.Ticker2)
	if req.ChartType1 == "" {
		req.ChartType1 = models.ChartLine
	}
	if req.ChartType2 == "" {
		req.ChartType2 = models.ChartLine
	}
	return req
}

// Compare validates req, fetches both series and stores the pair as a snapshot.
func (s *Service) Compare(ctx context.Context, req models.CompareRequest) (*models.Snapshot, error) {
	req = Normalize(req)
	if err := req.Validate(s.now().UTC()); err != nil {
		return nil, err
	}

	provider, err := s.market(ctx)
	if err != nil {
		return nil, fmt.Errorf("market provider: %w", err)
	}

	start := time.Now()
	series1, err := provider.GetHistory(ctx, req.Ticker1, req.From, req.To)
	if err != nil {
		return nil, err
	}
	series2, err := provider.GetHistory(ctx, req.Ticker2, req.From, req.To)
	if err != nil {
		return nil, err
	}

	snap := &models.Snapshot{
		ID:        uuid.New().String(),
		Request:   req,
		Series1:   series1,
		Series2:   series2,
		CreatedAt: s.now().UTC(),
	}
	s.store.Put(snap)

	s.logger.Info().
		Str("snapshot", snap.ID).
		Str("ticker1", req.Ticker1).
		Str("ticker2", req.Ticker2).
		Str("provider", provider.Name()).
		Int("bars1", series1.Len()).
		Int("bars2", series2.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Comparison fetched")

	return snap, nil
}

// History fetches one ticker's series without storing a snapshot.
func (s *Service) History(ctx context.Context, ticker string, from, to time.Time) (*models.PriceSeries, error) {
	ticker = market.NormalizeTicker(ticker)
	if !models.ValidTicker(ticker) {
		return nil, fmt.Errorf("%w: ticker %q", models.ErrInvalidRequest, ticker)
	}

	provider, err := s.market(ctx)
	if err != nil {
		return nil, fmt.Errorf("market provider: %w", err)
	}
	return provider.GetHistory(ctx, ticker, from, to)
}

// Snapshot returns a stored snapshot.
func (s *Service) Snapshot(id string) (*models.Snapshot, error) {
	snap, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return snap, nil
}

// SeriesAt returns series n (1 or 2) of a snapshot with its selected chart type.
func (s *Service) SeriesAt(id string, n int) (*models.PriceSeries, models.ChartType, error) {
	snap, err := s.Snapshot(id)
	if err != nil {
		return nil, "", err
	}
	switch n {
	case 1:
		return snap.Series1, snap.Request.ChartType1, nil
	case 2:
		return snap.Series2, snap.Request.ChartType2, nil
	default:
		return nil, "", fmt.Errorf("%w: series %d", ErrSnapshotNotFound, n)
	}
}

// Chart renders series n of a snapshot as PNG. An empty chartType uses the
// type selected when the comparison was made.
func (s *Service) Chart(id string, n int, chartType models.ChartType, width, height int) ([]byte, error) {
	series, selected, err := s.SeriesAt(id, n)
	if err != nil {
		return nil, err
	}
	if chartType == "" {
		chartType = selected
	}
	return chart.RenderPNG(series, chartType, width, height)
}

// Export writes both series of a snapshot to w as an xlsx workbook.
func (s *Service) Export(w io.Writer, id string) error {
	snap, err := s.Snapshot(id)
	if err != nil {
		return err
	}
	return export.WriteWorkbook(w, snap.Series1, snap.Series2)
}

// Analyse sends both series of a snapshot to the language model in a
// single completion request and renders the reply.
func (s *Service) Analyse(ctx context.Context, id, model string) (*Analysis, error) {
	snap, err := s.Snapshot(id)
	if err != nil {
		return nil, err
	}

	provider, err := s.llm.Provider(ctx, model)
	if err != nil {
		return nil, err
	}

	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := provider.Complete(ctx, llm.BuildComparisonPrompt(snap.Series1, snap.Series2))
	if err != nil {
		s.logger.Warn().
			Str("snapshot", id).
			Str("provider", string(provider.Name())).
			Err(err).
			Msg("Comparative analysis failed")
		return nil, err
	}

	html, err := llm.RenderMarkdown(completion.Text)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("snapshot", id).
		Str("provider", string(completion.Provider)).
		Str("model", completion.Model).
		Int("chars", len(completion.Text)).
		Dur("elapsed", time.Since(start)).
		Msg("Comparative analysis complete")

	return &Analysis{
		SnapshotID: id,
		Markdown:   llm.StripOuterFence(completion.Text),
		HTML:       html,
		Provider:   string(completion.Provider),
		Model:      completion.Model,
	}, nil
}
