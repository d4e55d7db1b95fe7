// Package resources registers MCP resources exposing the connected
// calendars and accounts as JSON documents.
package resources
