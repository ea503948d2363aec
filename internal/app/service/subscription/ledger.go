package subscription

import "time"

// NextEndDate returns max(existingEnd, ref) + days. A lapsed or missing
// subscription restarts at ref; an active one is stacked on. Days are added
// on the calendar (AddDate) in UTC, so the result never depends on the
// server time zone.
func NextEndDate(existingEnd *time.Time, days int, ref time.Time) time.Time {
	base := ref.UTC()
	if existingEnd != nil && existingEnd.After(base) {
		base = existingEnd.UTC()
	}
	return base.AddDate(0, 0, days)
}
