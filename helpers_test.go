package frontdesk

import (
	"time"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func booking(id, room, checkIn, checkOut string) Reservation {
	return Reservation{
		ID:        id,
		FirstName: "Guest",
		LastName:  id,
		RoomName:  room,
		CheckIn:   day(checkIn),
		CheckOut:  day(checkOut),
		InSeason:  true,
	}
}

func guest(id, first, last string) Reservation {
	r := booking(id, "Torch Lake", "2024-04-01", "2024-04-02")
	r.FirstName = first
	r.LastName = last
	return r
}

func ids(rs []Reservation) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
