package frontdesk

import (
	"context"
	"errors"
	"time"
)

// Error kinds. Wrap them with fmt.Errorf("%w: ...") to add detail and test with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("room not available for requested dates")
	ErrNotFound         = errors.New("reservation not found")
	ErrStoreUnavailable = errors.New("reservation store unavailable")
)

// DefaultRooms is the room set used when none is configured.
var DefaultRooms = []string{
	"Torch Lake",
	"Lake Skegemog",
	"Lake Bellaire",
	"Elk Lake",
	"Clam Lake",
}

// Reservation is a guest's stay in one room over the half-open day range
// [CheckIn, CheckOut).
type Reservation struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	RoomName  string    `json:"room_name"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	InSeason  bool      `json:"in_season"`
	CreatedAt time.Time `json:"created_at"`
}

// GuestName is the name used for display and search.
func (r Reservation) GuestName() string {
	return r.FirstName + " " + r.LastName
}

// Nights is the number of nights between check-in and check-out.
func (r Reservation) Nights() int {
	return Nights(r.CheckIn, r.CheckOut)
}

// NewReservationInput carries the fields a caller may set when booking a stay.
type NewReservationInput struct {
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name" validate:"required"`
	RoomName  string    `json:"room_name" validate:"required,room"`
	CheckIn   time.Time `json:"check_in" validate:"required"`
	CheckOut  time.Time `json:"check_out" validate:"required"`
}

// UpdateReservationInput carries the fields a caller may change on an existing
// reservation. The id, creation time and season flag are not editable.
type UpdateReservationInput struct {
	FirstName string    `json:"first_name" validate:"required"`
	LastName  string    `json:"last_name" validate:"required"`
	RoomName  string    `json:"room_name" validate:"required,room"`
	CheckIn   time.Time `json:"check_in" validate:"required"`
	CheckOut  time.Time `json:"check_out" validate:"required"`
}

// Store is the persistence boundary for reservations. Dates cross it
// normalized to the start of their day.
//
// Create and Update must reject, atomically with the write, a reservation
// that overlaps another one for the same room, returning an error wrapping
// ErrConflict. Update and Delete return ErrNotFound for unknown ids.
type Store interface {
	List(ctx context.Context) ([]Reservation, error)
	Get(ctx context.Context, id string) (Reservation, error)
	Create(ctx context.Context, in NewReservationInput) (Reservation, error)
	Update(ctx context.Context, r Reservation) (Reservation, error)
	Delete(ctx context.Context, id string) error
}
