package aggregate

import (
	"time"

	"paybaba/internal/models"
)

// DayOf returns the calendar day of t in loc, as midnight UTC. Daily
// aggregate keys always use this form so the date column never shifts.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TrailingDays is the day range of n whole days ending with the day of now,
// inclusive.
func TrailingDays(now time.Time, loc *time.Location, n int) models.DateRange {
	end := DayOf(now, loc).AddDate(0, 0, 1)
	return models.DateRange{Start: end.AddDate(0, 0, -n), End: end}
}

// Instants converts a day range into the instant range it covers in loc.
func Instants(r models.DateRange, loc *time.Location) models.DateRange {
	if loc == nil {
		loc = time.UTC
	}
	return models.DateRange{Start: localMidnight(r.Start, loc), End: localMidnight(r.End, loc)}
}

func localMidnight(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
