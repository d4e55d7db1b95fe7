package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/morgenmcp/internal/morgen"
	"github.com/teemow/morgenmcp/internal/query"
	"github.com/teemow/morgenmcp/internal/server"
	"github.com/teemow/morgenmcp/internal/tools/common"
)

// RegisterEventTools registers the range query and creation tools with
// the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getEventsTool := mcp.NewTool("get_events",
		mcp.WithDescription("Get events for specific calendars within a date range"),
		mcp.WithString("calendar_ids",
			mcp.Required(),
			mcp.Description("Comma-separated calendar IDs (e.g. 'id1,id2'), or 'all' together with account_id"),
		),
		mcp.WithString("start_date",
			mcp.Description("Range start (RFC3339 or '2006-01-02T15:04:05')"),
		),
		mcp.WithString("end_date",
			mcp.Description("Range end (RFC3339 or '2006-01-02T15:04:05')"),
		),
		mcp.WithString("account_id",
			mcp.Description("Account ID, required when calendar_ids is 'all'"),
		),
	)
	s.AddTool(getEventsTool, common.InstrumentedToolHandler("get_events",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvents(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("create_event",
		mcp.WithDescription("Create a new calendar event"),
		mcp.WithString("account_id",
			mcp.Description("Account ID owning the calendar (resolved automatically when omitted)"),
		),
		mcp.WithString("calendar_id",
			mcp.Required(),
			mcp.Description("Calendar ID to create the event in"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 or '2006-01-02T15:04:05')"),
		),
		mcp.WithString("end_time",
			mcp.Description("End time; the event duration is derived from start and end"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("time_zone",
			mcp.Description("IANA time zone (e.g. 'Europe/Berlin'); defaults to the calendar's time zone"),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandler("create_event",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	return nil
}

func handleGetEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req := query.EventsRequest{
		// Passed through untyped: the query layer rejects non-string
		// values with a message explaining the expected format.
		CalendarIDs: args["calendar_ids"],
	}
	if v, ok := args["start_date"].(string); ok {
		req.StartDate = v
	}
	if v, ok := args["end_date"].(string); ok {
		req.EndDate = v
	}
	if v, ok := args["account_id"].(string); ok {
		req.AccountID = v
	}

	events, err := sc.Queries().Events(ctx, req)
	if err != nil {
		return common.ToolResultFromError("get events", err), nil
	}
	return mcp.NewToolResultText(formatEvents(sortedEvents(events))), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	input := morgen.CreateEventInput{}
	if v, ok := args["title"].(string); ok {
		input.Title = v
	}
	if v, ok := args["calendar_id"].(string); ok {
		input.CalendarID = v
	}
	if v, ok := args["description"].(string); ok {
		input.Description = v
	}
	if v, ok := args["location"].(string); ok {
		input.Location = v
	}
	if v, ok := args["time_zone"].(string); ok {
		input.TimeZone = v
	}

	if v, ok := args["start_time"].(string); ok && v != "" {
		start, err := morgen.ParseTimestamp(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start_time: %v", err)), nil
		}
		input.Start = start
	}
	if v, ok := args["end_time"].(string); ok && v != "" {
		end, err := morgen.ParseTimestamp(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end_time: %v", err)), nil
		}
		input.End = end
	}

	created, err := sc.Queries().CreateEvent(ctx, input)
	if err != nil {
		return common.ToolResultFromError("create event", err), nil
	}

	return mcp.NewToolResultText("Event created:\n\n" + formatEvent(*created)), nil
}
