package morgen

import (
	"context"
	"strings"

	"github.com/teemow/morgenmcp/internal/logging"
)

// AllEventsInRange answers "all events across every connected account
// and calendar in [start, end)". Morgen requires one events query per
// account, so the range is fanned out: calendars are grouped by owning
// account and each account is queried in turn.
//
// Queries run sequentially in stable account order. This bounds upstream
// load and keeps the merge deterministic; latency grows with account
// count, which is acceptable for the handful of accounts a user
// connects.
//
// A single account's failure never aborts the aggregation: the failure
// is recorded and the remaining accounts are still queried. Only when
// every contributing account failed and nothing was merged does the call
// fail, with an AggregateError naming each account.
func (c *Client) AllEventsInRange(ctx context.Context, start, end string) ([]Event, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, &ConfigurationError{
			Message: "no calendar accounts connected; connect one in Morgen at https://platform.morgen.so",
		}
	}

	calendars, err := c.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	if len(calendars) == 0 {
		return nil, &ConfigurationError{
			Message: "no calendars available; check your connected accounts in Morgen",
		}
	}

	calendarsByAccount := make(map[string][]string)
	for _, cal := range calendars {
		calendarsByAccount[cal.AccountID] = append(calendarsByAccount[cal.AccountID], cal.ID)
	}

	var merged []Event
	var failures []AccountFailure
	for _, account := range accounts {
		ids := calendarsByAccount[account.ID]
		if len(ids) == 0 {
			continue
		}

		events, err := c.ListEvents(ctx, ListEventsParams{
			AccountID:   account.ID,
			CalendarIDs: strings.Join(ids, ","),
			Start:       start,
			End:         end,
		})
		if err != nil {
			c.logger.Warn("account query failed during fan-out",
				logging.Account(account.ID),
				logging.UserHash(account.Email),
				logging.Err(err))
			failures = append(failures, AccountFailure{AccountID: account.ID, Err: err})
			continue
		}
		merged = append(merged, events...)
	}

	if len(merged) == 0 && len(failures) > 0 {
		return nil, &AggregateError{Failures: failures}
	}
	return merged, nil
}
