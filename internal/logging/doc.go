// Package logging provides structured logging utilities for the
// morgenmcp adapter, built on the standard library's slog package.
//
// Logs always go to stderr so the stdio MCP transport keeps stdout clean
// for protocol frames. Account emails are hashed before logging and the
// Morgen API key is never logged directly.
package logging
