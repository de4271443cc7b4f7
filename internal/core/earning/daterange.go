package earning

import (
	"time"

	"github.com/clarifyx/clarifyx/internal/platform/apperr"
)

// Reporting periods accepted by every revenue aggregation endpoint.
const (
	PeriodToday     = "today"
	PeriodYesterday = "yesterday"
	PeriodThisWeek  = "thisWeek"
	PeriodThisMonth = "thisMonth"
	PeriodThisYear  = "thisYear"
	PeriodLifetime  = "lifetime"
)

// DateRange is a resolved reporting window. Lifetime ranges apply no
// date filter at all, which All distinguishes from bounded windows.
type DateRange struct {
	Start time.Time
	End   time.Time
	All   bool
}

/*
ResolveDateRange maps a period name onto a concrete window relative to
the reference instant.

Weeks start on Monday (ISO convention). Bounded windows run from
midnight of the first day through 23:59:59.999 of the reference day.

Author, company, and subscription revenue queries all resolve their
windows here; a second implementation with subtly different week or
month boundaries would silently desynchronize the dashboards.
*/
func ResolveDateRange(period string, now time.Time) (DateRange, error) {
	startOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
	endOfDay := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
	}

	switch period {
	case PeriodToday:
		return DateRange{Start: startOfDay(now), End: endOfDay(now)}, nil

	case PeriodYesterday:
		yesterday := now.AddDate(0, 0, -1)
		return DateRange{Start: startOfDay(yesterday), End: endOfDay(yesterday)}, nil

	case PeriodThisWeek:
		// time.Weekday counts Sunday as 0; shift so Monday is 0.
		offset := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -offset)
		return DateRange{Start: startOfDay(monday), End: endOfDay(now)}, nil

	case PeriodThisMonth:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: endOfDay(now)}, nil

	case PeriodThisYear:
		first := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return DateRange{Start: first, End: endOfDay(now)}, nil

	case PeriodLifetime:
		return DateRange{All: true}, nil
	}

	return DateRange{}, apperr.ValidationError("Unknown reporting period", apperr.FieldError{
		Field:   "period",
		Message: "Must be one of: today, yesterday, thisWeek, thisMonth, thisYear, lifetime",
	})
}
