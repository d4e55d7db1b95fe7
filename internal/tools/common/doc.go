// Package common provides shared utilities for MCP tool implementations:
// the error-to-tool-result mapping for the Morgen error taxonomy and the
// instrumented handler wrapper.
package common
