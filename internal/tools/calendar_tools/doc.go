// Package calendar_tools registers the Morgen calendar tools with the
// MCP server: calendar and account listing, today/week overviews, range
// queries, text search, event creation, and cache diagnostics.
package calendar_tools
