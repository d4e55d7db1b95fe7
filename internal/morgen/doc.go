// Package morgen provides a client for the Morgen calendar-aggregation
// API (https://api.morgen.so/v3).
//
// The client wraps the REST endpoints for listing calendars, accounts,
// and events and for creating events, authenticated by a static API key
// attached to every request. Idempotent metadata reads (calendars,
// accounts) are memoized in a client-owned TTL cache; creating an event
// invalidates every derived events: and search: cache entry.
//
// Because Morgen has no all-calendars query mode, range queries fan out
// across accounts with a tolerant partial-failure policy: some data is
// better than none, but no data plus errors is a hard failure.
//
// The error taxonomy distinguishes transport failures (NetworkError),
// non-2xx upstream responses (UpstreamError, with the status code
// preserved for 401/429 mapping), bad caller input (ValidationError),
// user-actionable account state (ConfigurationError), unknown entity
// references (NotFoundError), and total fan-out failure (AggregateError).
package morgen
