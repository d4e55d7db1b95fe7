package morgen

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestampFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc3339",
			input: "2024-01-15T10:30:00Z",
			want:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "local date-time without zone",
			input: "2024-01-15T10:30:00",
			want:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "plain date",
			input: "2024-01-15",
			want:  time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	_, err := ParseTimestamp("not-a-time")
	assert.Error(t, err)
}

func TestEventUnmarshalMixedTimeFormats(t *testing.T) {
	raw := `{
		"id": "ev-1",
		"title": "Planning",
		"start": "2024-01-15T09:00:00",
		"end": "2024-01-15T10:00:00Z",
		"calendarId": "cal-1",
		"accountId": "acct-1"
	}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))
	assert.Equal(t, 9, ev.Start.Hour())
	assert.Equal(t, 10, ev.End.Hour())
	assert.Equal(t, "cal-1", ev.CalendarID)
}

func TestTimestampMarshal(t *testing.T) {
	ts := Timestamp{time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-15T09:00:00Z"`, string(data))

	zero, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(zero))
}

func TestFilterSentinelEvents(t *testing.T) {
	events := []Event{
		{ID: "1", Title: "Team Standup"},
		{ID: "2", Title: "Busy (via Morgen)"},
		{ID: "3", Title: "Untitled Event"},
		{ID: "4", Title: "busy (via morgen)"}, // different case is not a sentinel
		{ID: "5", Title: ""},
	}

	filtered := filterSentinelEvents(events)
	ids := make([]string, len(filtered))
	for i, ev := range filtered {
		ids[i] = ev.ID
	}
	assert.Equal(t, []string{"1", "4", "5"}, ids)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "calendarIds", Message: "must be a string"}
	assert.Equal(t, "invalid calendarIds: must be a string", err.Error())

	bare := &ValidationError{Message: "something is off"}
	assert.Equal(t, "something is off", bare.Error())
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Resource: "calendar", ID: "cal-9"}
	assert.Equal(t, `calendar "cal-9" not found`, err.Error())
}
