package subscription

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestNextEndDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }
	msk := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		name     string
		existing *time.Time
		days     int
		ref      time.Time
		want     time.Time
	}{
		{name: "fresh subscription", existing: nil, days: 30, ref: day(2024, 5, 1), want: day(2024, 5, 31)},
		{name: "active subscription stacks", existing: lo.ToPtr(day(2024, 6, 1)), days: 30, ref: day(2024, 5, 1), want: day(2024, 7, 1)},
		{name: "lapsed subscription restarts at ref", existing: lo.ToPtr(day(2024, 4, 1)), days: 30, ref: day(2024, 5, 1), want: day(2024, 5, 31)},
		{name: "end equal to ref restarts at ref", existing: lo.ToPtr(day(2024, 5, 1)), days: 7, ref: day(2024, 5, 1), want: day(2024, 5, 8)},
		{name: "calendar days across month end", existing: nil, days: 1, ref: day(2024, 2, 28), want: day(2024, 2, 29)},
		{name: "result is utc", existing: nil, days: 1, ref: time.Date(2024, 5, 1, 2, 0, 0, 0, msk), want: time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextEndDate(tt.existing, tt.days, tt.ref)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNextEndDate_Monotonic(t *testing.T) {
	ref := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := ref.AddDate(0, 3, 0)
	for _, days := range []int{1, 7, 30, 365} {
		next := NextEndDate(&end, days, ref)
		assert.True(t, next.After(end))
		end = next
	}
}
