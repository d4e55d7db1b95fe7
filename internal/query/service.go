package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/morgenmcp/internal/cache"
	"github.com/teemow/morgenmcp/internal/instrumentation"
	"github.com/teemow/morgenmcp/internal/logging"
	"github.com/teemow/morgenmcp/internal/morgen"
)

const (
	todayTTL  = 2 * time.Minute
	weekTTL   = 2 * time.Minute
	rangeTTL  = time.Minute
	searchTTL = 30 * time.Second

	keyToday = "events:today"
	keyWeek  = "events:week"

	// DefaultSearchLimit caps search results when the caller does not.
	DefaultSearchLimit = 20

	// searchWindowDays is the half-width of the default search range
	// around now.
	searchWindowDays = 30
)

// weekdays in bucket order, Monday first.
var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// CalendarAPI is the slice of the Morgen client the query layer needs.
// Narrowed to an interface so tests can substitute a fake upstream.
type CalendarAPI interface {
	ListCalendars(ctx context.Context) ([]morgen.Calendar, error)
	ListAccounts(ctx context.Context) ([]morgen.Account, error)
	ListEvents(ctx context.Context, params morgen.ListEventsParams) ([]morgen.Event, error)
	AllEventsInRange(ctx context.Context, start, end string) ([]morgen.Event, error)
	CreateEvent(ctx context.Context, input morgen.CreateEventInput) (*morgen.Event, error)
}

var _ CalendarAPI = (*morgen.Client)(nil)

// EventsRequest are the parameters for an arbitrary-range events query.
//
// CalendarIDs deliberately has type interface{}: callers routinely send
// a JSON list where a comma-separated string is expected, and that
// mistake must be rejected with a pointed message rather than silently
// coerced.
type EventsRequest struct {
	StartDate   string
	EndDate     string
	CalendarIDs interface{}
	AccountID   string
}

// SearchOptions narrow a substring search.
type SearchOptions struct {
	StartDate  string
	EndDate    string
	MaxResults int
}

// Service implements the logical calendar queries consumed by the tool
// layer: today, week, arbitrary range, search, and creation. Results are
// cached per operation in the same store the Morgen client owns, so
// creating an event invalidates them together with everything else.
type Service struct {
	api    CalendarAPI
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time // injectable for deterministic range tests
}

// NewService creates a Service. The cache should be the Morgen client's
// own cache (Client.Cache()) so create-event invalidation covers the
// derived entries stored here.
func NewService(api CalendarAPI, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:    api,
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// TodayEvents returns all events in [local midnight today, local
// midnight tomorrow). This operation is best-effort: any internal
// failure degrades to an empty result so a transient fault never blocks
// a conversation over today's agenda.
func (s *Service) TodayEvents(ctx context.Context) []morgen.Event {
	if v, ok := s.cache.Get(keyToday); ok {
		instrumentation.RecordCacheLookup("events", true)
		return v.([]morgen.Event)
	}
	instrumentation.RecordCacheLookup("events", false)

	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	events, err := s.api.AllEventsInRange(ctx, start.Format(time.RFC3339), end.Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("today query degraded to empty result",
			logging.Operation("getTodayEvents"), logging.Err(err))
		return []morgen.Event{}
	}
	if events == nil {
		events = []morgen.Event{}
	}
	s.cache.Set(keyToday, events, todayTTL)
	return events
}

// WeekEvents returns this week's events bucketed by weekday name. The
// week runs [Monday 00:00, next Monday 00:00) in local time. All seven
// weekday keys are always present, possibly with empty slices. Like
// TodayEvents this is best-effort: failures degrade to the all-empty
// mapping.
func (s *Service) WeekEvents(ctx context.Context) map[string][]morgen.Event {
	if v, ok := s.cache.Get(keyWeek); ok {
		instrumentation.RecordCacheLookup("events", true)
		return v.(map[string][]morgen.Event)
	}
	instrumentation.RecordCacheLookup("events", false)

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := mondayOffset(now.Weekday())
	monday := midnight.AddDate(0, 0, offset)
	nextMonday := monday.AddDate(0, 0, 7)

	buckets := emptyWeek()
	events, err := s.api.AllEventsInRange(ctx, monday.Format(time.RFC3339), nextMonday.Format(time.RFC3339))
	if err != nil {
		s.logger.Warn("week query degraded to empty result",
			logging.Operation("getWeekEvents"), logging.Err(err))
		return buckets
	}

	for _, ev := range events {
		day := ev.Start.Weekday().String()
		buckets[day] = append(buckets[day], ev)
	}
	s.cache.Set(keyWeek, buckets, weekTTL)
	return buckets
}

// mondayOffset maps a weekday to the day delta back to Monday of the
// same week, with Sunday belonging to the week that started six days
// earlier.
func mondayOffset(day time.Weekday) int {
	if day == time.Sunday {
		return -6
	}
	return int(time.Monday - day)
}

func emptyWeek() map[string][]morgen.Event {
	buckets := make(map[string][]morgen.Event, len(weekdays))
	for _, day := range weekdays {
		buckets[day] = []morgen.Event{}
	}
	return buckets
}

// Events returns events for an explicit range over an explicit set of
// calendars. Unlike the today/week views this is not best-effort:
// validation and upstream failures propagate to the caller.
func (s *Service) Events(ctx context.Context, req EventsRequest) ([]morgen.Event, error) {
	if req.StartDate == "" {
		return nil, &morgen.ValidationError{Field: "startDate", Message: "startDate is required"}
	}
	if req.EndDate == "" {
		return nil, &morgen.ValidationError{Field: "endDate", Message: "endDate is required"}
	}
	if req.CalendarIDs == nil {
		return nil, &morgen.ValidationError{Field: "calendarIds", Message: "calendarIds is required"}
	}
	ids, ok := req.CalendarIDs.(string)
	if !ok {
		return nil, &morgen.ValidationError{
			Field: "calendarIds",
			Message: fmt.Sprintf(
				`must be a comma-separated string such as "id1,id2" (or "all"), got %T`, req.CalendarIDs),
		}
	}
	if ids == "" {
		return nil, &morgen.ValidationError{Field: "calendarIds", Message: "calendarIds is required"}
	}
	if ids == "all" && req.AccountID == "" {
		return nil, &morgen.ValidationError{
			Field:   "accountId",
			Message: `accountId is required when calendarIds is "all"`,
		}
	}

	key := cache.Key("events:range", map[string]string{
		"start":       req.StartDate,
		"end":         req.EndDate,
		"calendarIds": ids,
		"accountId":   req.AccountID,
	})
	if v, ok := s.cache.Get(key); ok {
		instrumentation.RecordCacheLookup("events", true)
		return v.([]morgen.Event), nil
	}
	instrumentation.RecordCacheLookup("events", false)

	events, err := s.api.ListEvents(ctx, morgen.ListEventsParams{
		AccountID:   req.AccountID,
		CalendarIDs: ids,
		Start:       req.StartDate,
		End:         req.EndDate,
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, events, rangeTTL)
	return events, nil
}

// Search returns up to opts.MaxResults events in the search window whose
// title, description, or location contains the query, case-insensitive.
// There is no relevance ranking; matching any one field suffices. The
// window defaults to now plus/minus 30 days. Aggregation failures
// propagate; search is not best-effort.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) ([]morgen.Event, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &morgen.ValidationError{Field: "query", Message: "query is required"}
	}

	now := s.now()
	start := opts.StartDate
	if start == "" {
		start = now.AddDate(0, 0, -searchWindowDays).Format(time.RFC3339)
	}
	end := opts.EndDate
	if end == "" {
		end = now.AddDate(0, 0, searchWindowDays).Format(time.RFC3339)
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	key := "search:" + query + ":" + cache.OptionsKey(map[string]interface{}{
		"startDate":  start,
		"endDate":    end,
		"maxResults": limit,
	})
	if v, ok := s.cache.Get(key); ok {
		instrumentation.RecordCacheLookup("search", true)
		return v.([]morgen.Event), nil
	}
	instrumentation.RecordCacheLookup("search", false)

	events, err := s.api.AllEventsInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := make([]morgen.Event, 0, limit)
	for _, ev := range events {
		if eventMatches(ev, needle) {
			matched = append(matched, ev)
			if len(matched) == limit {
				break
			}
		}
	}
	s.cache.Set(key, matched, searchTTL)
	return matched, nil
}

func eventMatches(ev morgen.Event, needle string) bool {
	return strings.Contains(strings.ToLower(ev.Title), needle) ||
		strings.Contains(strings.ToLower(ev.Description), needle) ||
		strings.Contains(strings.ToLower(ev.Location), needle)
}

// CreateEvent passes through to the Morgen client, which validates,
// creates, and invalidates the derived caches.
func (s *Service) CreateEvent(ctx context.Context, input morgen.CreateEventInput) (*morgen.Event, error) {
	return s.api.CreateEvent(ctx, input)
}

// CacheStats exposes the underlying cache snapshot for diagnostics.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}
