package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/compare"
	"github.com/bobmcallan/stock-compare/internal/llm"
	"github.com/bobmcallan/stock-compare/internal/models"
)

var chartTypeNames = []string{string(models.ChartLine), string(models.ChartBar), string(models.ChartCandlestick)}

// PriceHistoryTool returns the get_price_history tool definition.
func PriceHistoryTool() mcp.Tool {
	return mcp.NewTool("get_price_history",
		mcp.WithDescription("Get daily OHLCV prices for one ticker. The end date is exclusive."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Ticker symbol, e.g. AAPL")),
		mcp.WithString("from", mcp.Required(), mcp.Description("Start date (yyyy-mm-dd, inclusive)")),
		mcp.WithString("to", mcp.Required(), mcp.Description("End date (yyyy-mm-dd, exclusive)")),
	)
}

// CompareStocksTool returns the compare_stocks tool definition.
func CompareStocksTool() mcp.Tool {
	return mcp.NewTool("compare_stocks",
		mcp.WithDescription("Fetch two tickers over the same date range. Returns both price tables and a snapshot id for analyse_comparison and the /export download."),
		mcp.WithString("ticker1", mcp.Required(), mcp.Description("First ticker symbol")),
		mcp.WithString("ticker2", mcp.Required(), mcp.Description("Second ticker symbol")),
		mcp.WithString("from", mcp.Required(), mcp.Description("Start date (yyyy-mm-dd, inclusive)")),
		mcp.WithString("to", mcp.Required(), mcp.Description("End date (yyyy-mm-dd, exclusive)")),
		mcp.WithString("chart1", mcp.Description("Chart type for ticker1"), mcp.Enum(chartTypeNames...)),
		mcp.WithString("chart2", mcp.Description("Chart type for ticker2"), mcp.Enum(chartTypeNames...)),
	)
}

// AnalyseComparisonTool returns the analyse_comparison tool definition.
func AnalyseComparisonTool() mcp.Tool {
	return mcp.NewTool("analyse_comparison",
		mcp.WithDescription("Ask the configured language model to summarise the comparative performance of a snapshot from compare_stocks."),
		mcp.WithString("snapshot_id", mcp.Required(), mcp.Description("Snapshot id returned by compare_stocks")),
		mcp.WithString("model", mcp.Description("Model name; defaults to the configured provider's model")),
	)
}

type toolHandlers struct {
	service *compare.Service
	logger  *common.Logger
}

func (h *toolHandlers) priceHistory(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := dateRange(r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	series, err := h.service.History(ctx, r.GetString("ticker", ""), from, to)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s (%s)\n%s", series.Ticker, series.Provider, llm.FormatTable(series))), nil
}

func (h *toolHandlers) compareStocks(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := dateRange(r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snap, err := h.service.Compare(ctx, models.CompareRequest{
		Ticker1:    r.GetString("ticker1", ""),
		Ticker2:    r.GetString("ticker2", ""),
		From:       from,
		To:         to,
		ChartType1: models.ParseChartType(r.GetString("chart1", "")),
		ChartType2: models.ParseChartType(r.GetString("chart2", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "snapshot_id: %s\nexport: /export/%s\n\n", snap.ID, snap.ID)
	fmt.Fprintf(&b, "%s\n%s\n\n", snap.Series1.Ticker, llm.FormatTable(snap.Series1))
	fmt.Fprintf(&b, "%s\n%s", snap.Series2.Ticker, llm.FormatTable(snap.Series2))
	return mcp.NewToolResultText(b.String()), nil
}

func (h *toolHandlers) analyseComparison(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := r.GetString("snapshot_id", "")
	if id == "" {
		return mcp.NewToolResultError("snapshot_id is required"), nil
	}

	analysis, err := h.service.Analyse(ctx, id, r.GetString("model", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	h.logger.Debug().Str("snapshot", id).Str("provider", analysis.Provider).Msg("analysis served over MCP")
	return mcp.NewToolResultText(analysis.Markdown), nil
}

// dateRange reads the required from and to arguments as UTC dates.
func dateRange(r mcp.CallToolRequest) (from, to time.Time, err error) {
	if from, err = dateArg(r, "from"); err != nil {
		return
	}
	to, err = dateArg(r, "to")
	return
}

func dateArg(r mcp.CallToolRequest, name string) (time.Time, error) {
	v, err := r.RequireString(name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a yyyy-mm-dd date, got %q", name, v)
	}
	return t, nil
}
