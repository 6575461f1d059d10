// internal/nlp/timerange.go
package nlp

import "time"

// TimeRange is a concrete half-open [Start, End) interval. Relative ranges
// are recomputed from the current instant at classification time, so the
// same query text resolves to different ranges on different days.
type TimeRange struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Period   Period    `json:"period"`
	Relative bool      `json:"relative"`
}

// ResolveTimeRange tests the temporal expressions in declaration order and
// converts the first match into an interval anchored at now. It returns nil
// when the text carries no temporal language at all; the caller decides the
// implicit default window in that case.
func ResolveTimeRange(text string, now time.Time) *TimeRange {
	for _, tp := range timePatterns {
		if tp.Pattern.MatchString(text) {
			return convertToTimeRange(tp.Key, now)
		}
	}
	return nil
}

func convertToTimeRange(key string, now time.Time) *TimeRange {
	switch key {
	case "today":
		start := midnight(now)
		return &TimeRange{Start: start, End: start.Add(24 * time.Hour), Period: PeriodDay, Relative: true}

	case "yesterday":
		end := midnight(now)
		return &TimeRange{Start: end.Add(-24 * time.Hour), End: end, Period: PeriodDay, Relative: true}

	case "this_week":
		// Sunday-based weeks: weekday 0 is Sunday.
		start := now.Add(-time.Duration(now.Weekday()) * 24 * time.Hour)
		return &TimeRange{Start: start, End: start.Add(7 * 24 * time.Hour), Period: PeriodWeek, Relative: true}

	case "last_week":
		end := now.Add(-time.Duration(now.Weekday()) * 24 * time.Hour)
		return &TimeRange{Start: end.Add(-7 * 24 * time.Hour), End: end, Period: PeriodWeek, Relative: true}

	case "this_month":
		start := firstOfMonth(now)
		return &TimeRange{Start: start, End: start.AddDate(0, 1, 0), Period: PeriodMonth, Relative: true}

	case "last_month":
		// AddDate normalizes the January rollover into December of the
		// previous year.
		end := firstOfMonth(now)
		return &TimeRange{Start: end.AddDate(0, -1, 0), End: end, Period: PeriodMonth, Relative: true}

	default:
		// Temporal language that is present but not resolvable to a more
		// specific window defaults to the trailing 30 days ending at now.
		return &TimeRange{Start: now.AddDate(0, 0, -30), End: now, Period: PeriodMonth, Relative: true}
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
