package earning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarifyx/clarifyx/internal/core/earning"
)

func TestResolveDateRange(t *testing.T) {
	// Wednesday, 18 June 2025, 14:30 local time.
	reference := time.Date(2025, time.June, 18, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		period    string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			period:    earning.PeriodToday,
			wantStart: time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.June, 18, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			period:    earning.PeriodYesterday,
			wantStart: time.Date(2025, time.June, 17, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.June, 17, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			// Week starts the most recent Monday.
			period:    earning.PeriodThisWeek,
			wantStart: time.Date(2025, time.June, 16, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.June, 18, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			period:    earning.PeriodThisMonth,
			wantStart: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.June, 18, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			period:    earning.PeriodThisYear,
			wantStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, time.June, 18, 23, 59, 59, 999_000_000, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			window, err := earning.ResolveDateRange(tt.period, reference)
			require.NoError(t, err)

			assert.False(t, window.All)
			assert.True(t, window.Start.Equal(tt.wantStart), "start: got %v want %v", window.Start, tt.wantStart)
			assert.True(t, window.End.Equal(tt.wantEnd), "end: got %v want %v", window.End, tt.wantEnd)
		})
	}
}

// A Monday reference must resolve thisWeek to itself, and a Sunday must
// reach back six days, never forward.
func TestResolveDateRange_WeekBoundaries(t *testing.T) {
	monday := time.Date(2025, time.June, 16, 8, 0, 0, 0, time.UTC)
	window, err := earning.ResolveDateRange(earning.PeriodThisWeek, monday)
	require.NoError(t, err)
	assert.Equal(t, 16, window.Start.Day())

	sunday := time.Date(2025, time.June, 22, 8, 0, 0, 0, time.UTC)
	window, err = earning.ResolveDateRange(earning.PeriodThisWeek, sunday)
	require.NoError(t, err)
	assert.Equal(t, 16, window.Start.Day())
}

func TestResolveDateRange_Lifetime(t *testing.T) {
	window, err := earning.ResolveDateRange(earning.PeriodLifetime, time.Now())
	require.NoError(t, err)
	assert.True(t, window.All)
}

func TestResolveDateRange_UnknownPeriod(t *testing.T) {
	_, err := earning.ResolveDateRange("fortnight", time.Now())
	require.Error(t, err)
}
