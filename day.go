package frontdesk

import (
	"fmt"
	"time"
)

// DayLayout is the wire and storage format of a calendar day.
const DayLayout = "2006-01-02"

// DayStart returns midnight of t's calendar day in t's location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayIn returns midnight in loc of the calendar day t falls on in its own
// location. It moves a day between locations without shifting it.
func DayIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return t, nil
}

// FormatDay formats t's calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// AddDays moves t by n calendar days and returns the start of that day.
func AddDays(t time.Time, n int) time.Time {
	return DayStart(t.AddDate(0, 0, n))
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return civil(a).Equal(civil(b))
}

// Nights counts the calendar days from checkIn up to checkOut.
func Nights(checkIn, checkOut time.Time) int {
	return int(civil(checkOut).Sub(civil(checkIn)).Hours() / 24)
}

// Overlaps reports whether the half-open day ranges [aStart, aEnd) and
// [bStart, bEnd) share at least one day. Ranges that only touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return civil(aStart).Before(civil(bEnd)) && civil(bStart).Before(civil(aEnd))
}

// within reports whether day lies in the closed range [start, end].
func within(day, start, end time.Time) bool {
	d := civil(day)
	return !d.Before(civil(start)) && !d.After(civil(end))
}

// civil maps t's calendar day onto UTC midnight so days compare by date
// regardless of location or daylight saving.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
