package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stock-compare/internal/config"
)

// VersionTool returns the get_version tool definition.
func VersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the stock-compare server version. Use this to verify connectivity."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// VersionToolHandler reports config.Info as JSON.
func VersionToolHandler() server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := json.Marshal(config.Info())
		if err != nil {
			return mcp.NewToolResultError("encode version info: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}
