package morgen

import (
	"fmt"
	"strings"
)

// ValidationError reports bad caller input. It is raised before any
// network traffic happens and names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConfigurationError reports a user-actionable account state, such as no
// connected accounts. It is distinct from transient faults: retrying
// will not help until the user acts.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// NetworkError reports a transport-level failure reaching Morgen (DNS,
// connection refused, timeout). The client does not retry internally;
// callers may treat these as transient.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a non-2xx response from Morgen. StatusCode is
// always populated so callers can map 401/429 to user-facing messages;
// Details carries the parsed error body when the response was JSON.
type UpstreamError struct {
	StatusCode int
	Body       string
	Details    map[string]interface{}
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("morgen api error (HTTP %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("morgen api error (HTTP %d)", e.StatusCode)
}

// NotFoundError reports a referenced entity id that is absent from the
// known upstream entities.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// AccountFailure records one account's failed query during fan-out.
type AccountFailure struct {
	AccountID string
	Err       error
}

// AggregateError is returned when a fan-out produced zero events and
// every contributing account failed. Partial results never produce an
// AggregateError; they are returned as-is.
type AggregateError struct {
	Failures []AccountFailure
}

func (e *AggregateError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, fmt.Sprintf("account %s: %v", f.AccountID, f.Err))
	}
	return fmt.Sprintf("all %d account queries failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}
