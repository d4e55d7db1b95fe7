package common

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/teemow/morgenmcp/internal/instrumentation"
	"github.com/teemow/morgenmcp/internal/logging"
)

// ToolHandlerFunc is the mcp-go tool handler signature.
type ToolHandlerFunc = server.ToolHandlerFunc

// InstrumentedToolHandler wraps a tool handler with metrics and debug
// logging. A handler returning a tool-level error result counts as a
// failure even though the transport error is nil.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", handler))
func InstrumentedToolHandler(toolName string, handler ToolHandlerFunc) ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := handler(ctx, request)

		failed := err != nil || (result != nil && result.IsError)
		instrumentation.RecordToolCall(toolName, failed)

		logger := slog.Default().With(logging.Tool(toolName))
		if failed {
			logger.Debug("tool call failed",
				slog.Duration("duration", time.Since(start)),
				logging.Err(err))
		} else {
			logger.Debug("tool call completed",
				slog.Duration("duration", time.Since(start)))
		}
		return result, err
	}
}
