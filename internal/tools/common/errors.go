package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/morgenmcp/internal/morgen"
)

// ToolResultFromError maps the Morgen error taxonomy to a user-facing
// tool error. The messages are written for the person driving the AI
// assistant: they name what went wrong and what to do about it, without
// leaking the API key or internal detail.
func ToolResultFromError(action string, err error) *mcp.CallToolResult {
	var verr *morgen.ValidationError
	if errors.As(err, &verr) {
		return mcp.NewToolResultError(verr.Error())
	}

	var cfgErr *morgen.ConfigurationError
	if errors.As(err, &cfgErr) {
		return mcp.NewToolResultError(cfgErr.Message)
	}

	var nfErr *morgen.NotFoundError
	if errors.As(err, &nfErr) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v. Use list_calendars to see available calendars.", action, nfErr))
	}

	var upErr *morgen.UpstreamError
	if errors.As(err, &upErr) {
		switch upErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return mcp.NewToolResultError("Morgen rejected the API key. Check MORGEN_API_KEY; you can create a new key at https://platform.morgen.so/developers-api")
		case http.StatusTooManyRequests:
			return mcp.NewToolResultError("Morgen is rate limiting requests. Wait a moment and try again.")
		default:
			return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: Morgen returned HTTP %d", action, upErr.StatusCode))
		}
	}

	var netErr *morgen.NetworkError
	if errors.As(err, &netErr) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: could not reach Morgen (%v). Check your network connection.", action, netErr.Err))
	}

	var aggErr *morgen.AggregateError
	if errors.As(err, &aggErr) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, aggErr))
	}

	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}
