// Package server provides the MCP server context and the dedicated
// metrics/health HTTP server for the morgenmcp application.
//
// ServerContext owns the Morgen client and the query service built on
// it, and ties their lifetime to the server: Shutdown cancels the
// context and stops the client's cache janitor.
//
// MetricsServer exposes Prometheus metrics on its own port, isolated
// from MCP traffic, together with liveness and readiness probes backed
// by HealthChecker.
package server
