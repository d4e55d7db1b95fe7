package morgen

import (
	"fmt"
	"strings"
	"time"
)

// LocalDateTime is the zone-less date-time layout Morgen uses for event
// times and create payloads.
const LocalDateTime = "2006-01-02T15:04:05"

// Calendar is one named event collection belonging to an account. It is
// a read-through projection of upstream state; the adapter never mutates
// calendars.
type Calendar struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AccountID string `json:"accountId"`
	Color     string `json:"color,omitempty"`
	TimeZone  string `json:"timeZone,omitempty"`
}

// Account is one connected calendar-provider credential recognized by
// Morgen (e.g. one Google login).
type Account struct {
	ID            string `json:"id"`
	IntegrationID string `json:"integrationId"` // provider tag: "google", "o365", "apple", "exchange"
	Email         string `json:"email"`
}

// Event is a calendar event as reported by Morgen.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       Timestamp `json:"start"`
	End         Timestamp `json:"end"`
	CalendarID  string    `json:"calendarId"`
	AccountID   string    `json:"accountId"`
	TimeZone    string    `json:"timeZone,omitempty"`
}

// ListEventsParams scopes an events query. CalendarIDs is a
// comma-separated list of calendar ids, or the special value "all".
type ListEventsParams struct {
	AccountID   string
	CalendarIDs string
	Start       string
	End         string
}

// CreateEventInput is the caller-facing input for creating an event.
type CreateEventInput struct {
	Title       string
	Start       time.Time
	End         time.Time
	CalendarID  string
	Description string
	Location    string
	TimeZone    string
}

// Timestamp parses the two formats Morgen emits for event times: full
// RFC3339 and a bare local date-time without zone designator.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s as RFC3339, as a zone-less local date-time, or
// as a plain date, in that order.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, LocalDateTime, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// Sentinel placeholder titles Morgen injects for busy-only and unnamed
// entries. Events with these exact titles are excluded from every read
// path unconditionally.
var sentinelTitles = map[string]struct{}{
	"Busy (via Morgen)": {},
	"Untitled Event":    {},
}

// filterSentinelEvents drops placeholder events from a result set.
func filterSentinelEvents(events []Event) []Event {
	filtered := make([]Event, 0, len(events))
	for _, ev := range events {
		if _, sentinel := sentinelTitles[ev.Title]; sentinel {
			continue
		}
		filtered = append(filtered, ev)
	}
	return filtered
}

// Wire envelopes. Morgen wraps payloads in a "data" object keyed by the
// entity kind.

type calendarsResponse struct {
	Data struct {
		Calendars []Calendar `json:"calendars"`
	} `json:"data"`
}

type accountsResponse struct {
	Data struct {
		Accounts []Account `json:"accounts"`
	} `json:"data"`
}

type eventsResponse struct {
	Data struct {
		Events []Event `json:"events"`
	} `json:"data"`
}

type createEventResponse struct {
	Data struct {
		Event *Event `json:"event"`
	} `json:"data"`
}

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Start       string `json:"start"`
	Duration    string `json:"duration"`
	AccountID   string `json:"accountId"`
	CalendarID  string `json:"calendarId"`
	TimeZone    string `json:"timeZone,omitempty"`
}
