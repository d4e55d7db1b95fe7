// Package instrumentation provides Prometheus metrics for upstream API
// traffic, cache effectiveness, and MCP tool usage. Metrics register on
// the default registry and are exposed by the metrics server when the
// streamable-http transport is used.
package instrumentation
