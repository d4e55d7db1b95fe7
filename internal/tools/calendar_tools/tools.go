package calendar_tools

import (
	"fmt"
	"sort"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/morgenmcp/internal/morgen"
	"github.com/teemow/morgenmcp/internal/server"
)

// RegisterCalendarTools registers all calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}
	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}
	return nil
}

// formatEvents renders a numbered plain-text event list for tool output.
func formatEvents(events []morgen.Event) string {
	if len(events) == 0 {
		return "No events found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s):\n\n", len(events))
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, eventTitle(ev))
		writeEventDetails(&b, "   ", ev)
		b.WriteString("\n")
	}
	return b.String()
}

// formatWeek renders the weekday buckets Monday through Sunday.
func formatWeek(buckets map[string][]morgen.Event) string {
	order := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	total := 0
	for _, events := range buckets {
		total += len(events)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This week: %d event(s)\n\n", total)
	for _, day := range order {
		events := buckets[day]
		fmt.Fprintf(&b, "%s (%d):\n", day, len(events))
		if len(events) == 0 {
			b.WriteString("   -\n")
		}
		for _, ev := range events {
			fmt.Fprintf(&b, "   %s  %s\n", ev.Start.Format("15:04"), eventTitle(ev))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatEvent(ev morgen.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", eventTitle(ev))
	writeEventDetails(&b, "", ev)
	return b.String()
}

func writeEventDetails(b *strings.Builder, indent string, ev morgen.Event) {
	if !ev.Start.IsZero() {
		fmt.Fprintf(b, "%sStart: %s\n", indent, ev.Start.Format("2006-01-02 15:04"))
	}
	if !ev.End.IsZero() {
		fmt.Fprintf(b, "%sEnd: %s\n", indent, ev.End.Format("2006-01-02 15:04"))
	}
	if ev.Location != "" {
		fmt.Fprintf(b, "%sLocation: %s\n", indent, ev.Location)
	}
	if ev.Description != "" {
		fmt.Fprintf(b, "%sDescription: %s\n", indent, ev.Description)
	}
	if ev.ID != "" {
		fmt.Fprintf(b, "%sID: %s\n", indent, ev.ID)
	}
	if ev.CalendarID != "" {
		fmt.Fprintf(b, "%sCalendar: %s\n", indent, ev.CalendarID)
	}
}

func eventTitle(ev morgen.Event) string {
	if ev.Title == "" {
		return "(no title)"
	}
	return ev.Title
}

// sortedEvents returns events ordered by start time, stable on id, so
// tool output does not jitter between calls.
func sortedEvents(events []morgen.Event) []morgen.Event {
	out := make([]morgen.Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start.Time) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start.Time)
	})
	return out
}
