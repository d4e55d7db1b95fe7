package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/morgenmcp/internal/server"
	"github.com/teemow/morgenmcp/internal/tools/common"
)

// RegisterCalendarListTools registers calendar and account listing tools
// plus the cache diagnostics tool with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("list_calendars",
		mcp.WithDescription("List all calendars across connected accounts"),
	)
	s.AddTool(listCalendarsTool, common.InstrumentedToolHandler("list_calendars",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, sc)
		}))

	listAccountsTool := mcp.NewTool("list_accounts",
		mcp.WithDescription("List connected calendar provider accounts (Google, Office 365, Apple, Exchange)"),
	)
	s.AddTool(listAccountsTool, common.InstrumentedToolHandler("list_accounts",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListAccounts(ctx, sc)
		}))

	cacheStatsTool := mcp.NewTool("cache_stats",
		mcp.WithDescription("Show response cache occupancy (diagnostic)"),
	)
	s.AddTool(cacheStatsTool, common.InstrumentedToolHandler("cache_stats",
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCacheStats(sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	calendars, err := sc.Client().ListCalendars(ctx)
	if err != nil {
		return common.ToolResultFromError("list calendars", err), nil
	}

	if len(calendars) == 0 {
		return mcp.NewToolResultText("No calendars found. Connect a calendar account in Morgen at https://platform.morgen.so"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendar(s):\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cal.Name)
		fmt.Fprintf(&b, "   ID: %s\n", cal.ID)
		fmt.Fprintf(&b, "   Account: %s\n", cal.AccountID)
		if cal.TimeZone != "" {
			fmt.Fprintf(&b, "   Time Zone: %s\n", cal.TimeZone)
		}
		if cal.Color != "" {
			fmt.Fprintf(&b, "   Color: %s\n", cal.Color)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleListAccounts(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	accounts, err := sc.Client().ListAccounts(ctx)
	if err != nil {
		return common.ToolResultFromError("list accounts", err), nil
	}

	if len(accounts) == 0 {
		return mcp.NewToolResultText("No accounts connected. Connect a calendar account in Morgen at https://platform.morgen.so"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d account(s):\n\n", len(accounts))
	for i, acct := range accounts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, acct.Email)
		fmt.Fprintf(&b, "   ID: %s\n", acct.ID)
		fmt.Fprintf(&b, "   Provider: %s\n", acct.IntegrationID)
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleCacheStats(sc *server.ServerContext) (*mcp.CallToolResult, error) {
	stats := sc.Queries().CacheStats()
	result := fmt.Sprintf("Cache: %d/%d entries (%d valid, %d expired)\n",
		stats.Size, stats.MaxSize, stats.Valid, stats.Expired)
	return mcp.NewToolResultText(result), nil
}
