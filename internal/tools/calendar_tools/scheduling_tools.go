package calendar_tools

import (
	"context"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/morgenmcp/internal/query"
	"github.com/teemow/morgenmcp/internal/server"
	"github.com/teemow/morgenmcp/internal/tools/common"
)

// RegisterSchedulingTools registers the day/week overview and search
// tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	todayTool := mcp.NewTool("get_today_events",
		mcp.WithDescription("Get today's events across all calendars"),
	)
	s.AddTool(todayTool, common.InstrumentedToolHandler("get_today_events",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			events := sc.Queries().TodayEvents(ctx)
			return mcp.NewToolResultText(formatEvents(sortedEvents(events))), nil
		}))

	weekTool := mcp.NewTool("get_week_events",
		mcp.WithDescription("Get this week's events across all calendars, grouped by weekday"),
	)
	s.AddTool(weekTool, common.InstrumentedToolHandler("get_week_events",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			buckets := sc.Queries().WeekEvents(ctx)
			return mcp.NewToolResultText(formatWeek(buckets)), nil
		}))

	searchTool := mcp.NewTool("search_events",
		mcp.WithDescription("Search events by text across title, description, and location"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text (case-insensitive substring match)"),
		),
		mcp.WithString("start_date",
			mcp.Description("Range start (defaults to 30 days ago)"),
		),
		mcp.WithString("end_date",
			mcp.Description("Range end (defaults to 30 days from now)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results (default 20)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandler("search_events",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEvents(ctx, request, sc)
		}))

	return nil
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	searchQuery, _ := args["query"].(string)

	opts := query.SearchOptions{}
	if v, ok := args["start_date"].(string); ok {
		opts.StartDate = v
	}
	if v, ok := args["end_date"].(string); ok {
		opts.EndDate = v
	}
	// JSON numbers arrive as float64.
	if v, ok := args["max_results"].(float64); ok && v > 0 && v == math.Trunc(v) {
		opts.MaxResults = int(v)
	}

	events, err := sc.Queries().Search(ctx, searchQuery, opts)
	if err != nil {
		return common.ToolResultFromError("search events", err), nil
	}
	return mcp.NewToolResultText(formatEvents(sortedEvents(events))), nil
}
