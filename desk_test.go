package frontdesk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(ctx context.Context) ([]Reservation, error) {
	args := m.Called(ctx)
	rs, _ := args.Get(0).([]Reservation)
	return rs, args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, id string) (Reservation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Reservation), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, in NewReservationInput) (Reservation, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(Reservation), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, r Reservation) (Reservation, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(Reservation), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func newTestDesk(t *testing.T, store Store) *Desk {
	t.Helper()

	d, err := NewDesk(store, DeskConfig{
		Location: time.UTC,
		Locale:   language.English,
		Clock:    fixedClock(time.Date(2024, 4, 10, 15, 30, 0, 0, time.UTC)),
	}, otelzap.New(zap.NewNop()).Sugar())
	require.NoError(t, err)
	return d
}

func newInput(room, checkIn, checkOut string) NewReservationInput {
	return NewReservationInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		RoomName:  room,
		CheckIn:   day(checkIn),
		CheckOut:  day(checkOut),
	}
}

func TestNewDeskDefaults(t *testing.T) {
	d, err := NewDesk(new(mockStore), DeskConfig{}, otelzap.New(zap.NewNop()).Sugar())
	require.NoError(t, err)

	assert.Equal(t, DefaultRooms, d.Rooms())
	assert.Equal(t, time.Local, d.Location())
	assert.True(t, d.HasRoom("Elk Lake"))
	assert.False(t, d.HasRoom("Lake Michigan"))

	rooms := d.Rooms()
	rooms[0] = "changed"
	assert.Equal(t, "Torch Lake", d.Rooms()[0])
}

func TestDeskToday(t *testing.T) {
	d := newTestDesk(t, new(mockStore))
	assert.Equal(t, day("2024-04-10"), d.Today())
}

func TestDeskCreate(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	existing := booking("r1", "Torch Lake", "2024-04-07", "2024-04-10")
	in := newInput("Torch Lake", "2024-04-10", "2024-04-12")
	in.FirstName = "  Ada "
	want := in
	want.FirstName = "Ada"

	created := Reservation{ID: "r2", FirstName: "Ada", LastName: "Lovelace", RoomName: "Torch Lake",
		CheckIn: in.CheckIn, CheckOut: in.CheckOut, InSeason: true}

	store.On("List", mock.Anything).Return([]Reservation{existing}, nil)
	store.On("Create", mock.Anything, want).Return(created, nil)

	got, err := d.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	store.AssertExpectations(t)
}

func TestDeskCreateConflict(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	store.On("List", mock.Anything).Return([]Reservation{
		booking("r1", "Torch Lake", "2024-04-08", "2024-04-11"),
	}, nil)

	_, err := d.Create(context.Background(), newInput("Torch Lake", "2024-04-10", "2024-04-12"))
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "2024-04-08 to 2024-04-11")
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeskCreateLosesRace(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	store.On("List", mock.Anything).Return([]Reservation{}, nil)
	store.On("Create", mock.Anything, mock.Anything).
		Return(Reservation{}, errors.New("disk I/O error")).Once()

	_, err := d.Create(context.Background(), newInput("Torch Lake", "2024-04-10", "2024-04-12"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	store.On("Create", mock.Anything, mock.Anything).
		Return(Reservation{}, ErrConflict).Once()

	_, err = d.Create(context.Background(), newInput("Torch Lake", "2024-04-10", "2024-04-12"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestDeskCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		edit func(in *NewReservationInput)
		msg  string
	}{
		{"missing first name", func(in *NewReservationInput) { in.FirstName = "   " }, "first_name is required"},
		{"missing last name", func(in *NewReservationInput) { in.LastName = "" }, "last_name is required"},
		{"unknown room", func(in *NewReservationInput) { in.RoomName = "Lake Michigan" }, `room_name "Lake Michigan" is not a known room`},
		{"missing check in", func(in *NewReservationInput) { in.CheckIn = time.Time{} }, "check_in is required"},
		{"zero nights", func(in *NewReservationInput) { in.CheckOut = in.CheckIn }, ""},
		{"inverted stay", func(in *NewReservationInput) { in.CheckIn, in.CheckOut = in.CheckOut, in.CheckIn }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			d := newTestDesk(t, store)

			in := newInput("Torch Lake", "2024-04-10", "2024-04-12")
			tt.edit(&in)

			_, err := d.Create(context.Background(), in)
			require.ErrorIs(t, err, ErrValidation)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
			store.AssertNotCalled(t, "List", mock.Anything)
			store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestDeskCreateNormalizesDays(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	in := newInput("Elk Lake", "2024-04-10", "2024-04-12")
	in.CheckIn = in.CheckIn.Add(14 * time.Hour)
	in.CheckOut = in.CheckOut.Add(11 * time.Hour)

	store.On("List", mock.Anything).Return([]Reservation{}, nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(in NewReservationInput) bool {
		return in.CheckIn.Equal(day("2024-04-10")) && in.CheckOut.Equal(day("2024-04-12"))
	})).Return(Reservation{ID: "r1"}, nil)

	_, err := d.Create(context.Background(), in)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestDeskStoreFailure(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	boom := errors.New("connection refused")
	store.On("List", mock.Anything).Return(nil, boom)

	_, err := d.List(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = d.Create(context.Background(), newInput("Torch Lake", "2024-04-10", "2024-04-12"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = d.Calendar(context.Background(), WeekView, time.Time{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDeskUpdate(t *testing.T) {
	current := booking("r1", "Torch Lake", "2024-04-08", "2024-04-11")
	current.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	other := booking("r2", "Torch Lake", "2024-04-11", "2024-04-14")

	t.Run("overlapping its own stay", func(t *testing.T) {
		store := new(mockStore)
		d := newTestDesk(t, store)

		want := current
		want.FirstName = "Grace"
		want.LastName = "Hopper"
		want.CheckIn = day("2024-04-09")

		store.On("List", mock.Anything).Return([]Reservation{current, other}, nil)
		store.On("Update", mock.Anything, want).Return(want, nil)

		got, err := d.Update(context.Background(), "r1", UpdateReservationInput{
			FirstName: "Grace",
			LastName:  "Hopper",
			RoomName:  "Torch Lake",
			CheckIn:   day("2024-04-09"),
			CheckOut:  day("2024-04-11"),
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, current.CreatedAt, got.CreatedAt)
		store.AssertExpectations(t)
	})

	t.Run("into another stay", func(t *testing.T) {
		store := new(mockStore)
		d := newTestDesk(t, store)

		store.On("List", mock.Anything).Return([]Reservation{current, other}, nil)

		_, err := d.Update(context.Background(), "r1", UpdateReservationInput{
			FirstName: "Ada",
			LastName:  "Lovelace",
			RoomName:  "Torch Lake",
			CheckIn:   day("2024-04-08"),
			CheckOut:  day("2024-04-12"),
		})
		assert.ErrorIs(t, err, ErrConflict)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := new(mockStore)
		d := newTestDesk(t, store)

		store.On("List", mock.Anything).Return([]Reservation{current, other}, nil)

		_, err := d.Update(context.Background(), "missing", UpdateReservationInput{
			FirstName: "Ada",
			LastName:  "Lovelace",
			RoomName:  "Elk Lake",
			CheckIn:   day("2024-04-08"),
			CheckOut:  day("2024-04-12"),
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeskDelete(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	store.On("Delete", mock.Anything, "r1").Return(nil)
	store.On("Delete", mock.Anything, "missing").Return(ErrNotFound)

	require.NoError(t, d.Delete(context.Background(), "r1"))
	assert.ErrorIs(t, d.Delete(context.Background(), "missing"), ErrNotFound)
}

func TestDeskCheckAvailability(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	store.On("List", mock.Anything).Return([]Reservation{
		booking("r1", "Torch Lake", "2024-04-08", "2024-04-11"),
	}, nil)

	ok, err := d.CheckAvailability(context.Background(), "Torch Lake", day("2024-04-11"), day("2024-04-13"), "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.CheckAvailability(context.Background(), "Torch Lake", day("2024-04-10"), day("2024-04-13"), "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = d.CheckAvailability(context.Background(), "Torch Lake", day("2024-04-10"), day("2024-04-13"), "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = d.CheckAvailability(context.Background(), "Lake Michigan", day("2024-04-10"), day("2024-04-13"), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeskQueryUsesDefaultPageSize(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	var rs []Reservation
	for i := 0; i < 12; i++ {
		rs = append(rs, booking(string(rune('a'+i)), "Torch Lake", "2024-04-01", "2024-04-02"))
	}
	store.On("List", mock.Anything).Return(rs, nil)

	page, err := d.Query(context.Background(), Query{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, []string{"k", "l"}, ids(page.Items))
}

func TestDeskListOrdersByCheckIn(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	store.On("List", mock.Anything).Return([]Reservation{
		booking("late", "Elk Lake", "2024-04-20", "2024-04-22"),
		booking("early", "Torch Lake", "2024-04-01", "2024-04-03"),
	}, nil)

	rs, err := d.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids(rs))
}

func TestDeskCalendar(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	store.On("List", mock.Anything).Return([]Reservation{
		booking("r1", "Torch Lake", "2024-04-08", "2024-04-12"),
		booking("r2", "Torch Lake", "2024-04-09", "2024-04-11"),
	}, nil)

	cal, err := d.Calendar(context.Background(), WeekView, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, "Apr 7 - 13, 2024", cal.Label)
	assert.Equal(t, day("2024-04-10"), cal.Anchor)
	require.Len(t, cal.Occupancy.Collisions, 1)
	assert.Equal(t, "r1", cal.Occupancy.At("Torch Lake", day("2024-04-10")).Reservation.ID)

	_, err = d.Calendar(context.Background(), "year", time.Time{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeskDigest(t *testing.T) {
	store := new(mockStore)
	d := newTestDesk(t, store)

	store.On("List", mock.Anything).Return([]Reservation{
		booking("leaving", "Torch Lake", "2024-04-07", "2024-04-10"),
		booking("arriving", "Elk Lake", "2024-04-10", "2024-04-12"),
		booking("tomorrow", "Clam Lake", "2024-04-11", "2024-04-12"),
	}, nil)

	dg, err := d.Digest(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, day("2024-04-10"), dg.Day)
	assert.Equal(t, []string{"arriving"}, ids(dg.CheckingIn))
	assert.Equal(t, []string{"leaving"}, ids(dg.CheckingOut))

	dg, err = d.Digest(context.Background(), day("2024-04-11"))
	require.NoError(t, err)
	assert.Equal(t, []string{"tomorrow"}, ids(dg.CheckingIn))
	assert.Empty(t, dg.CheckingOut)
}

func TestNewDeskWithoutLogger(t *testing.T) {
	store := new(mockStore)
	d, err := NewDesk(store, DeskConfig{Location: time.UTC}, nil)
	require.NoError(t, err)

	store.On("List", mock.Anything).Return([]Reservation{}, nil)
	store.On("Create", mock.Anything, mock.Anything).Return(Reservation{}, ErrConflict)

	assert.NotPanics(t, func() {
		_, err = d.Create(context.Background(), newInput("Torch Lake", "2024-04-10", "2024-04-12"))
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeskCreateKeepsCalendarDayOfInput(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	store := new(mockStore)
	d, err := NewDesk(store, DeskConfig{Location: ny}, otelzap.New(zap.NewNop()).Sugar())
	require.NoError(t, err)

	in := newInput("Torch Lake", "2024-04-11", "2024-04-13")
	in.CheckIn = time.Date(2024, 4, 11, 2, 0, 0, 0, time.UTC)

	store.On("List", mock.Anything).Return([]Reservation{}, nil)
	store.On("Create", mock.Anything, mock.MatchedBy(func(in NewReservationInput) bool {
		return in.CheckIn.Equal(time.Date(2024, 4, 11, 0, 0, 0, 0, ny)) && in.CheckIn.Location() == ny
	})).Return(Reservation{ID: "r1"}, nil)

	_, err = d.Create(context.Background(), in)
	require.NoError(t, err)
	store.AssertExpectations(t)
}
