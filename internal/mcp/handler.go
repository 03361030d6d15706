// Package mcp exposes the comparison operations as MCP tools.
package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/compare"
	"github.com/bobmcallan/stock-compare/internal/config"
)

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewMCPServer creates an MCP server with the comparison tools registered.
func NewMCPServer(svc *compare.Service, logger *common.Logger) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		"stock-compare",
		config.Version,
		mcpserver.WithToolCapabilities(true),
	)

	tools := &toolHandlers{service: svc, logger: logger}
	s.AddTool(PriceHistoryTool(), tools.priceHistory)
	s.AddTool(CompareStocksTool(), tools.compareStocks)
	s.AddTool(AnalyseComparisonTool(), tools.analyseComparison)
	s.AddTool(VersionTool(), VersionToolHandler())

	return s
}

// NewHandler creates the MCP handler. Sessions are not kept: every request
// is served on its own.
func NewHandler(svc *compare.Service, logger *common.Logger) *Handler {
	streamable := mcpserver.NewStreamableHTTPServer(NewMCPServer(svc, logger),
		mcpserver.WithStateLess(true),
	)

	logger.Info().Int("tools", 4).Msg("MCP handler initialized")

	return &Handler{
		streamable: streamable,
		logger:     logger,
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
