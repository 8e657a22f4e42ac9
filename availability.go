package frontdesk

import (
	"fmt"
	"time"
)

// IsAvailable reports whether room is free for the stay [checkIn, checkOut)
// against the given reservations. The reservation whose id equals excludeID
// is skipped, so an update is never checked against itself. A stay that does
// not end after it starts is an input error, not an unavailable room.
func IsAvailable(room string, checkIn, checkOut time.Time, reservations []Reservation, excludeID string) (bool, error) {
	if err := validateStay(checkIn, checkOut); err != nil {
		return false, err
	}
	return len(Conflicts(room, checkIn, checkOut, reservations, excludeID)) == 0, nil
}

// Conflicts returns the reservations for room, other than excludeID, whose
// stays overlap [checkIn, checkOut). Input order is kept.
func Conflicts(room string, checkIn, checkOut time.Time, reservations []Reservation, excludeID string) []Reservation {
	var out []Reservation
	for _, r := range reservations {
		if r.RoomName != room {
			continue
		}
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if Overlaps(checkIn, checkOut, r.CheckIn, r.CheckOut) {
			out = append(out, r)
		}
	}
	return out
}

func validateStay(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return fmt.Errorf("%w: check-in and check-out dates are required", ErrValidation)
	}
	if Nights(checkIn, checkOut) < 1 {
		return fmt.Errorf("%w: check-out %s must be after check-in %s",
			ErrValidation, FormatDay(checkOut), FormatDay(checkIn))
	}
	return nil
}
