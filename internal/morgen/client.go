package morgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/teemow/morgenmcp/internal/cache"
	"github.com/teemow/morgenmcp/internal/instrumentation"
	"github.com/teemow/morgenmcp/internal/logging"
)

const (
	// DefaultBaseURL is the Morgen API endpoint.
	DefaultBaseURL = "https://api.morgen.so/v3"

	// DefaultTimeout bounds every upstream call so a hung request cannot
	// block an in-flight tool call indefinitely.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond limits outbound request rate to Morgen.
	DefaultRequestsPerSecond = 5
	defaultBurst             = 10

	keyCalendars = "calendars"
	keyAccounts  = "accounts"
)

// metadataTTL is how long calendar and account listings stay cached.
// A var so tests can shrink it to exercise expiry.
var metadataTTL = time.Hour

// Config configures a Client. Zero values fall back to defaults; only
// APIKey is required.
type Config struct {
	APIKey            string
	BaseURL           string
	HTTPClient        *http.Client
	CacheSize         int
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Client talks to the Morgen calendar-aggregation API. It owns the
// response cache for its credential: one Client (and therefore one
// cache) exists per configured API key for the process lifetime.
// Call Close on shutdown to stop the cache janitor.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("morgen api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = cache.DefaultMaxSize
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		cache:      cache.New(cfg.CacheSize),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), defaultBurst),
		logger:     cfg.Logger,
	}, nil
}

// Cache exposes the client-owned response cache so the query layer can
// store derived results in the same store that CreateEvent invalidates.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// Close stops the cache janitor and drops all cached state.
func (c *Client) Close() {
	c.cache.Destroy()
}

// ListCalendars returns all calendars across connected accounts.
// Results are cached for an hour.
func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	if v, ok := c.cache.Get(keyCalendars); ok {
		instrumentation.RecordCacheLookup(keyCalendars, true)
		return v.([]Calendar), nil
	}
	instrumentation.RecordCacheLookup(keyCalendars, false)

	var resp calendarsResponse
	if err := c.get(ctx, "listCalendars", "/calendars/list", nil, &resp); err != nil {
		return nil, err
	}
	c.cache.Set(keyCalendars, resp.Data.Calendars, metadataTTL)
	return resp.Data.Calendars, nil
}

// ListAccounts returns all connected provider accounts. Results are
// cached for an hour.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	if v, ok := c.cache.Get(keyAccounts); ok {
		instrumentation.RecordCacheLookup(keyAccounts, true)
		return v.([]Account), nil
	}
	instrumentation.RecordCacheLookup(keyAccounts, false)

	var resp accountsResponse
	if err := c.get(ctx, "listAccounts", "/integrations/accounts/list", nil, &resp); err != nil {
		return nil, err
	}
	c.cache.Set(keyAccounts, resp.Data.Accounts, metadataTTL)
	return resp.Data.Accounts, nil
}

// ListEvents returns events matching params. Results are not cached at
// this layer; caching happens per logical operation in the query layer.
//
// CalendarIDs == "all" is special-cased: with both range ends present
// the query fans out across accounts (Morgen has no native all-calendars
// query mode); otherwise "all" is resolved by listing calendars and
// joining their ids.
func (c *Client) ListEvents(ctx context.Context, params ListEventsParams) ([]Event, error) {
	if params.CalendarIDs == "all" {
		if params.Start != "" && params.End != "" {
			return c.AllEventsInRange(ctx, params.Start, params.End)
		}
		calendars, err := c.ListCalendars(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(calendars))
		for _, cal := range calendars {
			ids = append(ids, cal.ID)
		}
		params.CalendarIDs = strings.Join(ids, ",")
	}

	q := url.Values{}
	if params.CalendarIDs != "" {
		q.Set("calendarIds", params.CalendarIDs)
	}
	if params.AccountID != "" {
		q.Set("accountId", params.AccountID)
	}
	if params.Start != "" {
		q.Set("start", params.Start)
	}
	if params.End != "" {
		q.Set("end", params.End)
	}

	var resp eventsResponse
	if err := c.get(ctx, "listEvents", "/events/list", q, &resp); err != nil {
		return nil, err
	}
	return filterSentinelEvents(resp.Data.Events), nil
}

// CreateEvent validates input, resolves the owning account for the
// target calendar, and creates the event upstream. On success every
// cached events: and search: entry is invalidated; a new event could
// affect query results for any date range.
func (c *Client) CreateEvent(ctx context.Context, input CreateEventInput) (*Event, error) {
	switch {
	case input.Title == "":
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	case input.Start.IsZero():
		return nil, &ValidationError{Field: "startDate", Message: "startDate is required"}
	case input.End.IsZero():
		return nil, &ValidationError{Field: "endDate", Message: "endDate is required"}
	case input.CalendarID == "":
		return nil, &ValidationError{Field: "calendarId", Message: "calendarId is required"}
	}

	// Morgen wants the duration as whole minutes, rounded.
	durationMinutes := int(math.Round(input.End.Sub(input.Start).Minutes()))

	calendars, err := c.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	var owner *Calendar
	for i := range calendars {
		if calendars[i].ID == input.CalendarID {
			owner = &calendars[i]
			break
		}
	}
	if owner == nil {
		return nil, &NotFoundError{Resource: "calendar", ID: input.CalendarID}
	}

	timeZone := input.TimeZone
	if timeZone == "" {
		timeZone = owner.TimeZone
	}

	body := createEventRequest{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Start:       input.Start.Format(LocalDateTime),
		Duration:    fmt.Sprintf("%dm", durationMinutes),
		AccountID:   owner.AccountID,
		CalendarID:  input.CalendarID,
		TimeZone:    timeZone,
	}

	var resp createEventResponse
	if err := c.post(ctx, "createEvent", "/events/create", body, &resp); err != nil {
		return nil, err
	}

	c.invalidateEventCaches()

	created := resp.Data.Event
	if created == nil {
		// Upstream omitted the created event; echo the request back.
		created = &Event{
			Title:       input.Title,
			Description: input.Description,
			Location:    input.Location,
			Start:       Timestamp{input.Start},
			End:         Timestamp{input.End},
			CalendarID:  input.CalendarID,
			AccountID:   owner.AccountID,
			TimeZone:    timeZone,
		}
	}
	return created, nil
}

// invalidateEventCaches drops every derived events: and search: entry.
// Coarse on purpose: correctness over precision.
func (c *Client) invalidateEventCaches() {
	removed := c.cache.DeletePrefix("events:")
	removed += c.cache.DeletePrefix("search:")
	c.logger.Debug("invalidated event caches after create",
		slog.Int("entries_removed", removed))
}

func (c *Client) get(ctx context.Context, operation, path string, query url.Values, out interface{}) error {
	return c.do(ctx, operation, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, operation, path string, body, out interface{}) error {
	return c.do(ctx, operation, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Op: operation, Err: err}
	}

	urlStr := c.baseURL + path
	if len(query) > 0 {
		urlStr += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("morgen api request",
		logging.Operation(operation),
		slog.String("method", method),
		slog.String("path", path))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		instrumentation.RecordUpstreamNetworkError(operation, time.Since(start))
		return &NetworkError{Op: operation, Err: err}
	}
	defer resp.Body.Close()
	instrumentation.RecordUpstreamRequest(operation, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: operation, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upErr := &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
		var details map[string]interface{}
		if json.Unmarshal(respBody, &details) == nil {
			upErr.Details = details
		}
		c.logger.Warn("morgen api request failed",
			logging.Operation(operation),
			slog.Int("status", resp.StatusCode))
		return upErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse %s response: %w", operation, err)
		}
	}
	return nil
}
