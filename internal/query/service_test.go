package query

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/morgenmcp/internal/cache"
	"github.com/teemow/morgenmcp/internal/morgen"
)

// mockAPI satisfies CalendarAPI with per-call function fields so tests
// can script upstream behavior without a network.
type mockAPI struct {
	listCalendarsFunc    func(ctx context.Context) ([]morgen.Calendar, error)
	listAccountsFunc     func(ctx context.Context) ([]morgen.Account, error)
	listEventsFunc       func(ctx context.Context, params morgen.ListEventsParams) ([]morgen.Event, error)
	allEventsInRangeFunc func(ctx context.Context, start, end string) ([]morgen.Event, error)
	createEventFunc      func(ctx context.Context, input morgen.CreateEventInput) (*morgen.Event, error)

	listEventsCalls int
	rangeCalls      int
}

func (m *mockAPI) ListCalendars(ctx context.Context) ([]morgen.Calendar, error) {
	if m.listCalendarsFunc == nil {
		return nil, nil
	}
	return m.listCalendarsFunc(ctx)
}

func (m *mockAPI) ListAccounts(ctx context.Context) ([]morgen.Account, error) {
	if m.listAccountsFunc == nil {
		return nil, nil
	}
	return m.listAccountsFunc(ctx)
}

func (m *mockAPI) ListEvents(ctx context.Context, params morgen.ListEventsParams) ([]morgen.Event, error) {
	m.listEventsCalls++
	if m.listEventsFunc == nil {
		return nil, nil
	}
	return m.listEventsFunc(ctx, params)
}

func (m *mockAPI) AllEventsInRange(ctx context.Context, start, end string) ([]morgen.Event, error) {
	m.rangeCalls++
	if m.allEventsInRangeFunc == nil {
		return nil, nil
	}
	return m.allEventsInRangeFunc(ctx, start, end)
}

func (m *mockAPI) CreateEvent(ctx context.Context, input morgen.CreateEventInput) (*morgen.Event, error) {
	if m.createEventFunc == nil {
		return nil, nil
	}
	return m.createEventFunc(ctx, input)
}

func newTestService(t *testing.T, api CalendarAPI) *Service {
	t.Helper()
	c := cache.New(cache.DefaultMaxSize)
	t.Cleanup(c.Destroy)
	return NewService(api, c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func eventAt(id string, start time.Time) morgen.Event {
	return morgen.Event{
		ID:         id,
		Title:      "Event " + id,
		Start:      morgen.Timestamp{Time: start},
		End:        morgen.Timestamp{Time: start.Add(time.Hour)},
		CalendarID: "cal-1",
		AccountID:  "acct-1",
	}
}

func TestTodayEventsQueriesLocalMidnightRange(t *testing.T) {
	var gotStart, gotEnd string
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, start, end string) ([]morgen.Event, error) {
			gotStart, gotEnd = start, end
			return []morgen.Event{eventAt("ev-1", time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC))}, nil
		},
	}
	svc := newTestService(t, api)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC) // a Wednesday afternoon
	}

	events := svc.TodayEvents(context.Background())

	require.Len(t, events, 1)
	assert.Equal(t, "2024-03-13T00:00:00Z", gotStart)
	assert.Equal(t, "2024-03-14T00:00:00Z", gotEnd)
}

func TestTodayEventsCachesResult(t *testing.T) {
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, _, _ string) ([]morgen.Event, error) {
			return []morgen.Event{eventAt("ev-1", time.Now())}, nil
		},
	}
	svc := newTestService(t, api)

	svc.TodayEvents(context.Background())
	svc.TodayEvents(context.Background())

	assert.Equal(t, 1, api.rangeCalls, "second call should be served from cache")
}

func TestTodayEventsDegradesToEmptyOnFailure(t *testing.T) {
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, _, _ string) ([]morgen.Event, error) {
			return nil, &morgen.NetworkError{Op: "listEvents", Err: fmt.Errorf("connection refused")}
		},
	}
	svc := newTestService(t, api)

	events := svc.TodayEvents(context.Background())

	assert.NotNil(t, events)
	assert.Empty(t, events)
	// Failures are not cached; the next call retries upstream.
	svc.TodayEvents(context.Background())
	assert.Equal(t, 2, api.rangeCalls)
}

func TestWeekEventsBucketsByWeekday(t *testing.T) {
	var gotStart, gotEnd string
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, start, end string) ([]morgen.Event, error) {
			gotStart, gotEnd = start, end
			return []morgen.Event{
				eventAt("ev-mon", time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)),
				eventAt("ev-wed-1", time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)),
				eventAt("ev-wed-2", time.Date(2024, 3, 13, 14, 0, 0, 0, time.UTC)),
				eventAt("ev-sun", time.Date(2024, 3, 17, 20, 0, 0, 0, time.UTC)),
			}, nil
		},
	}
	svc := newTestService(t, api)
	// Wednesday 2024-03-13; the week is Monday the 11th through Sunday
	// the 17th.
	svc.now = func() time.Time {
		return time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	}

	buckets := svc.WeekEvents(context.Background())

	assert.Equal(t, "2024-03-11T00:00:00Z", gotStart)
	assert.Equal(t, "2024-03-18T00:00:00Z", gotEnd)
	require.Len(t, buckets, 7)
	for _, day := range weekdays {
		require.Contains(t, buckets, day)
	}
	assert.Len(t, buckets["Monday"], 1)
	assert.Len(t, buckets["Wednesday"], 2)
	assert.Len(t, buckets["Sunday"], 1)
	assert.Empty(t, buckets["Tuesday"])
	assert.Empty(t, buckets["Saturday"])
}

func TestWeekEventsSundayBelongsToRunningWeek(t *testing.T) {
	var gotStart string
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, start, _ string) ([]morgen.Event, error) {
			gotStart = start
			return nil, nil
		},
	}
	svc := newTestService(t, api)
	// Sunday 2024-03-17; the week started Monday the 11th, not the 18th.
	svc.now = func() time.Time {
		return time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)
	}

	svc.WeekEvents(context.Background())

	assert.Equal(t, "2024-03-11T00:00:00Z", gotStart)
}

func TestWeekEventsDegradesToEmptyBuckets(t *testing.T) {
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, _, _ string) ([]morgen.Event, error) {
			return nil, &morgen.UpstreamError{StatusCode: 500, Body: "boom"}
		},
	}
	svc := newTestService(t, api)

	buckets := svc.WeekEvents(context.Background())

	require.Len(t, buckets, 7)
	for _, day := range weekdays {
		assert.Empty(t, buckets[day])
	}
}

func TestEventsRejectsArrayCalendarIDs(t *testing.T) {
	api := &mockAPI{}
	svc := newTestService(t, api)

	_, err := svc.Events(context.Background(), EventsRequest{
		StartDate:   "2024-01-15",
		EndDate:     "2024-01-16",
		CalendarIDs: []interface{}{"cal-1", "cal-2"},
	})

	var verr *morgen.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "calendarIds", verr.Field)
	assert.Contains(t, verr.Message, "comma-separated string")
	assert.Zero(t, api.listEventsCalls, "validation failure must not reach upstream")
}

func TestEventsValidation(t *testing.T) {
	svc := newTestService(t, &mockAPI{})
	ctx := context.Background()

	tests := []struct {
		name  string
		req   EventsRequest
		field string
	}{
		{"missing start", EventsRequest{EndDate: "2024-01-16", CalendarIDs: "cal-1"}, "startDate"},
		{"missing end", EventsRequest{StartDate: "2024-01-15", CalendarIDs: "cal-1"}, "endDate"},
		{"nil calendars", EventsRequest{StartDate: "2024-01-15", EndDate: "2024-01-16"}, "calendarIds"},
		{"empty calendars", EventsRequest{StartDate: "2024-01-15", EndDate: "2024-01-16", CalendarIDs: ""}, "calendarIds"},
		{"all without account", EventsRequest{StartDate: "2024-01-15", EndDate: "2024-01-16", CalendarIDs: "all"}, "accountId"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Events(ctx, tc.req)
			var verr *morgen.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestEventsCachesPerParameterSet(t *testing.T) {
	api := &mockAPI{
		listEventsFunc: func(_ context.Context, params morgen.ListEventsParams) ([]morgen.Event, error) {
			return []morgen.Event{eventAt("ev-"+params.CalendarIDs, time.Now())}, nil
		},
	}
	svc := newTestService(t, api)
	ctx := context.Background()

	req := EventsRequest{StartDate: "2024-01-15", EndDate: "2024-01-16", CalendarIDs: "cal-1"}
	first, err := svc.Events(ctx, req)
	require.NoError(t, err)
	second, err := svc.Events(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, api.listEventsCalls)

	// A different calendar set misses the cache.
	_, err = svc.Events(ctx, EventsRequest{StartDate: "2024-01-15", EndDate: "2024-01-16", CalendarIDs: "cal-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, api.listEventsCalls)
}

func TestEventsPropagatesUpstreamError(t *testing.T) {
	api := &mockAPI{
		listEventsFunc: func(_ context.Context, _ morgen.ListEventsParams) ([]morgen.Event, error) {
			return nil, &morgen.UpstreamError{StatusCode: 503, Body: "unavailable"}
		},
	}
	svc := newTestService(t, api)

	_, err := svc.Events(context.Background(), EventsRequest{
		StartDate: "2024-01-15", EndDate: "2024-01-16", CalendarIDs: "cal-1",
	})

	var upErr *morgen.UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, 503, upErr.StatusCode)
}

func TestSearchMatchesAnyTextFieldCaseInsensitive(t *testing.T) {
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, _, _ string) ([]morgen.Event, error) {
			return []morgen.Event{
				{ID: "by-title", Title: "Standup Meeting"},
				{ID: "by-description", Title: "Planning", Description: "prep for the standup"},
				{ID: "by-location", Title: "Coffee", Location: "Standup corner"},
				{ID: "no-match", Title: "1:1", Description: "career chat", Location: "office"},
			}, nil
		},
	}
	svc := newTestService(t, api)

	results, err := svc.Search(context.Background(), "STANDUP", SearchOptions{})

	require.NoError(t, err)
	require.Len(t, results, 3)
	ids := []string{results[0].ID, results[1].ID, results[2].ID}
	assert.ElementsMatch(t, []string{"by-title", "by-description", "by-location"}, ids)
}

func TestSearchCapsResults(t *testing.T) {
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, _, _ string) ([]morgen.Event, error) {
			events := make([]morgen.Event, 0, 30)
			for i := 0; i < 30; i++ {
				events = append(events, morgen.Event{ID: fmt.Sprintf("ev-%d", i), Title: "sync"})
			}
			return events, nil
		},
	}
	svc := newTestService(t, api)
	ctx := context.Background()

	results, err := svc.Search(ctx, "sync", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, DefaultSearchLimit)

	results, err = svc.Search(ctx, "sync", SearchOptions{MaxResults: 5})
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestSearchDefaultWindowIsThirtyDaysAroundNow(t *testing.T) {
	var gotStart, gotEnd string
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, start, end string) ([]morgen.Event, error) {
			gotStart, gotEnd = start, end
			return nil, nil
		},
	}
	svc := newTestService(t, api)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}

	_, err := svc.Search(context.Background(), "sync", SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, "2024-05-16T12:00:00Z", gotStart)
	assert.Equal(t, "2024-07-15T12:00:00Z", gotEnd)
}

func TestSearchPropagatesAggregationFailure(t *testing.T) {
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, _, _ string) ([]morgen.Event, error) {
			return nil, &morgen.AggregateError{Failures: []morgen.AccountFailure{
				{AccountID: "acct-1", Err: fmt.Errorf("500")},
			}}
		},
	}
	svc := newTestService(t, api)

	_, err := svc.Search(context.Background(), "sync", SearchOptions{})

	var aggErr *morgen.AggregateError
	require.ErrorAs(t, err, &aggErr)
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := newTestService(t, &mockAPI{})

	for _, query := range []string{"", "   "} {
		_, err := svc.Search(context.Background(), query, SearchOptions{})
		var verr *morgen.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "query", verr.Field)
	}
}

func TestSearchCachesPerQueryAndOptions(t *testing.T) {
	api := &mockAPI{
		allEventsInRangeFunc: func(_ context.Context, _, _ string) ([]morgen.Event, error) {
			return []morgen.Event{{ID: "ev-1", Title: "sync"}}, nil
		},
	}
	svc := newTestService(t, api)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	_, err := svc.Search(ctx, "sync", SearchOptions{})
	require.NoError(t, err)
	_, err = svc.Search(ctx, "sync", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, api.rangeCalls)

	_, err = svc.Search(ctx, "sync", SearchOptions{MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, api.rangeCalls, "different options key a different cache entry")
}

// The end-to-end path: a real Morgen client against a fake upstream with
// two accounts, two calendars, one real event, and two placeholder
// entries. The service should surface exactly the real event, and
// creating an event should invalidate the derived caches.
func TestServiceEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/integrations/accounts/list", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"accounts":[
			{"id":"acct-a","integrationId":"google","email":"a@example.com"},
			{"id":"acct-b","integrationId":"o365","email":"b@example.com"}
		]}}`)
	})
	mux.HandleFunc("/calendars/list", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"calendars":[
			{"id":"cal-a","name":"Work","accountId":"acct-a","timeZone":"Europe/Berlin"},
			{"id":"cal-b","name":"Personal","accountId":"acct-b"}
		]}}`)
	})
	var eventsCalls int
	mux.HandleFunc("/events/list", func(w http.ResponseWriter, r *http.Request) {
		eventsCalls++
		if r.URL.Query().Get("accountId") == "acct-a" {
			fmt.Fprint(w, `{"data":{"events":[
				{"id":"ev-real","title":"Design Review","start":"2024-03-13T10:00:00","end":"2024-03-13T11:00:00","calendarId":"cal-a","accountId":"acct-a"},
				{"id":"ev-busy","title":"Busy (via Morgen)","start":"2024-03-13T12:00:00","end":"2024-03-13T13:00:00","calendarId":"cal-a","accountId":"acct-a"}
			]}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"events":[
			{"id":"ev-untitled","title":"Untitled Event","start":"2024-03-13T15:00:00","end":"2024-03-13T16:00:00","calendarId":"cal-b","accountId":"acct-b"}
		]}}`)
	})
	mux.HandleFunc("/events/create", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"event":{"id":"ev-new","title":"Retro","start":"2024-03-14T10:00:00","end":"2024-03-14T11:00:00","calendarId":"cal-a","accountId":"acct-a"}}}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client, err := morgen.New(morgen.Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		RequestsPerSecond: 10000,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	svc := NewService(client, client.Cache(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time {
		return time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	today := svc.TodayEvents(ctx)
	require.Len(t, today, 1, "placeholder events must be filtered out")
	assert.Equal(t, "ev-real", today[0].ID)
	assert.Equal(t, 2, eventsCalls, "one events request per account")

	// Served from cache.
	svc.TodayEvents(ctx)
	assert.Equal(t, 2, eventsCalls)

	// Creating an event drops the derived caches; the next today query
	// goes back upstream.
	created, err := svc.CreateEvent(ctx, morgen.CreateEventInput{
		Title:      "Retro",
		Start:      time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 3, 14, 11, 0, 0, 0, time.UTC),
		CalendarID: "cal-a",
	})
	require.NoError(t, err)
	assert.Equal(t, "ev-new", created.ID)

	svc.TodayEvents(ctx)
	assert.Equal(t, 4, eventsCalls, "create must invalidate the today cache")
}
