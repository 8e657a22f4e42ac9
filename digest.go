package frontdesk

import (
	"fmt"
	"time"
)

// DayDigest lists the arrivals and departures of one day.
type DayDigest struct {
	Day         time.Time     `json:"day"`
	CheckingIn  []Reservation `json:"checking_in"`
	CheckingOut []Reservation `json:"checking_out"`
}

// BuildDigest collects the reservations checking in and checking out on day.
// A reservation lands in at most one list; one that would land in both has
// CheckIn == CheckOut and is reported as an ErrValidation error.
func BuildDigest(reservations []Reservation, day time.Time) (DayDigest, error) {
	d := DayDigest{
		Day:         DayStart(day),
		CheckingIn:  []Reservation{},
		CheckingOut: []Reservation{},
	}
	for _, r := range reservations {
		in, out := SameDay(r.CheckIn, day), SameDay(r.CheckOut, day)
		if in && out {
			return DayDigest{}, fmt.Errorf("%w: reservation %s checks in and out on %s",
				ErrValidation, r.ID, FormatDay(day))
		}
		if in {
			d.CheckingIn = append(d.CheckingIn, r)
		}
		if out {
			d.CheckingOut = append(d.CheckingOut, r)
		}
	}
	return d, nil
}
