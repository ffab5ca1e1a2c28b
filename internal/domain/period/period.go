package period

import "time"

// Range is a UTC time interval, inclusive on both ends. To always sits on
// the last millisecond before the next range starts, matching the upstream
// APIs' millisecond-resolution timestamps.
type Range struct {
	From time.Time
	To   time.Time
}

// FromMillis returns the range start as a Unix-millisecond timestamp.
func (r Range) FromMillis() int64 { return r.From.UnixMilli() }

// ToMillis returns the range end as a Unix-millisecond timestamp.
func (r Range) ToMillis() int64 { return r.To.UnixMilli() }

// Periods holds the current and previous calendar-month ranges.
type Periods struct {
	Current  Range
	Previous Range
}

// Monthly derives the current and previous UTC calendar-month ranges from
// the given instant. The previous range ends one millisecond before the
// current one starts, and January rolls back into December of the prior year.
func Monthly(now time.Time) Periods {
	now = now.UTC()

	currentStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextStart := currentStart.AddDate(0, 1, 0)
	previousStart := currentStart.AddDate(0, -1, 0)

	return Periods{
		Current: Range{
			From: currentStart,
			To:   nextStart.Add(-time.Millisecond),
		},
		Previous: Range{
			From: previousStart,
			To:   currentStart.Add(-time.Millisecond),
		},
	}
}

// MonthBounds returns the first and last calendar day of the given UTC month.
func MonthBounds(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}
