package frontdesk

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Clock tells the desk what time it is.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DeskConfig holds the static configuration of a desk. Zero fields take
// defaults: DefaultRooms, time.Local, Sunday, DefaultPageSize, the root
// collation and SystemClock.
type DeskConfig struct {
	Rooms []string
	// Location pins days to midnight. A date passed to the desk keeps the
	// calendar day it has in its own location and is not converted first:
	// 2024-04-11T02:00Z is April 11 even for a desk in New York.
	Location  *time.Location
	WeekStart time.Weekday
	PageSize  int
	Locale    language.Tag
	Clock     Clock
}

// Desk runs the front-desk operations over a Store. Mutations are checked
// against the current reservations before they reach the store; the store's
// own overlap constraint settles races between concurrent writers.
type Desk struct {
	store    Store
	cfg      DeskConfig
	validate *validator.Validate
	log      *otelzap.SugaredLogger
}

// NewDesk constructs a Desk.
func NewDesk(store Store, cfg DeskConfig, log *otelzap.SugaredLogger) (*Desk, error) {
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = DefaultRooms
	}
	cfg.Rooms = append([]string(nil), cfg.Rooms...)
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if log == nil {
		log = otelzap.New(zap.NewNop()).Sugar()
	}

	d := Desk{
		store: store,
		cfg:   cfg,
		log:   log,
	}

	d.validate = validator.New()
	d.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := d.validate.RegisterValidation("room", func(fl validator.FieldLevel) bool {
		return d.HasRoom(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("registering room validation: %w", err)
	}

	return &d, nil
}

// Rooms returns the configured rooms in display order.
func (d *Desk) Rooms() []string {
	return append([]string(nil), d.cfg.Rooms...)
}

// HasRoom reports whether room is one of the configured rooms.
func (d *Desk) HasRoom(room string) bool {
	for _, r := range d.cfg.Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// Location is the time zone days are pinned to.
func (d *Desk) Location() *time.Location {
	return d.cfg.Location
}

// Today is the start of the current day in the desk location.
func (d *Desk) Today() time.Time {
	return DayStart(d.cfg.Clock.Now().In(d.cfg.Location))
}

// List returns every reservation ordered by check-in.
func (d *Desk) List(ctx context.Context) ([]Reservation, error) {
	ctx, span := startSpan(ctx, "desk.list")
	defer span.End()

	rs, err := d.list(ctx)
	if err != nil {
		return nil, spanErr(span, err)
	}
	return rs, nil
}

// Get returns the reservation with id.
func (d *Desk) Get(ctx context.Context, id string) (Reservation, error) {
	ctx, span := startSpan(ctx, "desk.get", attribute.String("reservation.id", id))
	defer span.End()

	r, err := d.store.Get(ctx, id)
	if err != nil {
		return Reservation{}, spanErr(span, storeErr(err))
	}
	return d.local(r), nil
}

// Query returns one page of the filtered and sorted reservation list. A zero
// page size or locale takes the desk default.
func (d *Desk) Query(ctx context.Context, q Query) (Page, error) {
	ctx, span := startSpan(ctx, "desk.query",
		attribute.String("query.sort", string(q.SortField)),
		attribute.Int("query.page", q.Page),
	)
	defer span.End()

	if q.PageSize <= 0 {
		q.PageSize = d.cfg.PageSize
	}
	if q.Locale.IsRoot() {
		q.Locale = d.cfg.Locale
	}

	rs, err := d.list(ctx)
	if err != nil {
		return Page{}, spanErr(span, err)
	}
	page, err := QueryReservations(rs, q)
	if err != nil {
		return Page{}, spanErr(span, err)
	}
	return page, nil
}

// CheckAvailability is the pre-check a booking form runs before submitting.
// excludeID names the reservation being edited, if any.
func (d *Desk) CheckAvailability(ctx context.Context, room string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	ctx, span := startSpan(ctx, "desk.availability", attribute.String("room", room))
	defer span.End()

	if !d.HasRoom(room) {
		return false, spanErr(span, fmt.Errorf("%w: room %q is not a known room", ErrValidation, room))
	}
	rs, err := d.list(ctx)
	if err != nil {
		return false, spanErr(span, err)
	}
	ok, err := IsAvailable(room, d.day(checkIn), d.day(checkOut), rs, excludeID)
	if err != nil {
		return false, spanErr(span, err)
	}
	return ok, nil
}

// Create books a new stay. The room must be free for the requested nights.
// CheckIn and CheckOut are read as calendar days in their own location, see
// DeskConfig.Location.
func (d *Desk) Create(ctx context.Context, in NewReservationInput) (Reservation, error) {
	ctx, span := startSpan(ctx, "desk.create", attribute.String("room", in.RoomName))
	defer span.End()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CheckIn = d.day(in.CheckIn)
	in.CheckOut = d.day(in.CheckOut)
	if err := d.check(in, in.CheckIn, in.CheckOut); err != nil {
		return Reservation{}, spanErr(span, err)
	}

	rs, err := d.list(ctx)
	if err != nil {
		return Reservation{}, spanErr(span, err)
	}
	if err := conflictErr(in.RoomName, in.CheckIn, in.CheckOut, rs, ""); err != nil {
		return Reservation{}, spanErr(span, err)
	}

	r, err := d.store.Create(ctx, in)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			d.log.Ctx(ctx).Warnw("create", "status", "store rejected overlapping stay", "room", in.RoomName,
				"check_in", FormatDay(in.CheckIn), "check_out", FormatDay(in.CheckOut))
		}
		return Reservation{}, spanErr(span, storeErr(err))
	}
	return d.local(r), nil
}

// Update changes an existing reservation. The new stay is checked against
// every other reservation for the room.
func (d *Desk) Update(ctx context.Context, id string, in UpdateReservationInput) (Reservation, error) {
	ctx, span := startSpan(ctx, "desk.update",
		attribute.String("reservation.id", id),
		attribute.String("room", in.RoomName),
	)
	defer span.End()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CheckIn = d.day(in.CheckIn)
	in.CheckOut = d.day(in.CheckOut)
	if err := d.check(in, in.CheckIn, in.CheckOut); err != nil {
		return Reservation{}, spanErr(span, err)
	}

	rs, err := d.list(ctx)
	if err != nil {
		return Reservation{}, spanErr(span, err)
	}

	var (
		current Reservation
		found   bool
	)
	for _, r := range rs {
		if r.ID == id {
			current, found = r, true
			break
		}
	}
	if !found {
		return Reservation{}, spanErr(span, fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	if err := conflictErr(in.RoomName, in.CheckIn, in.CheckOut, rs, id); err != nil {
		return Reservation{}, spanErr(span, err)
	}

	current.FirstName = in.FirstName
	current.LastName = in.LastName
	current.RoomName = in.RoomName
	current.CheckIn = in.CheckIn
	current.CheckOut = in.CheckOut

	r, err := d.store.Update(ctx, current)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			d.log.Ctx(ctx).Warnw("update", "status", "store rejected overlapping stay", "id", id, "room", in.RoomName)
		}
		return Reservation{}, spanErr(span, storeErr(err))
	}
	return d.local(r), nil
}

// Delete removes a reservation outright.
func (d *Desk) Delete(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "desk.delete", attribute.String("reservation.id", id))
	defer span.End()

	if err := d.store.Delete(ctx, id); err != nil {
		return spanErr(span, storeErr(err))
	}
	return nil
}

// Calendar projects the reservations onto the view window around anchor. A
// zero anchor means today.
func (d *Desk) Calendar(ctx context.Context, view View, anchor time.Time) (Calendar, error) {
	ctx, span := startSpan(ctx, "desk.calendar", attribute.String("calendar.view", string(view)))
	defer span.End()

	if anchor.IsZero() {
		anchor = d.Today()
	}
	rs, err := d.list(ctx)
	if err != nil {
		return Calendar{}, spanErr(span, err)
	}

	cal, err := BuildCalendar(view, d.day(anchor), d.cfg.WeekStart, d.Today(), d.cfg.Rooms, rs)
	if err != nil {
		return Calendar{}, spanErr(span, err)
	}
	for _, c := range cal.Occupancy.Collisions {
		d.log.Ctx(ctx).Warnw("calendar", "status", "overlapping reservations", "room", c.Room,
			"shown", c.Shown.ID, "hidden", c.Hidden.ID)
	}
	return cal, nil
}

// Digest lists the check-ins and check-outs of day. A zero day means today.
func (d *Desk) Digest(ctx context.Context, day time.Time) (DayDigest, error) {
	ctx, span := startSpan(ctx, "desk.digest")
	defer span.End()

	if day.IsZero() {
		day = d.Today()
	}
	rs, err := d.list(ctx)
	if err != nil {
		return DayDigest{}, spanErr(span, err)
	}
	dg, err := BuildDigest(rs, d.day(day))
	if err != nil {
		return DayDigest{}, spanErr(span, err)
	}
	return dg, nil
}

func (d *Desk) list(ctx context.Context) ([]Reservation, error) {
	rs, err := d.store.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	for i := range rs {
		rs[i] = d.local(rs[i])
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].CheckIn.Before(rs[j].CheckIn)
	})
	return rs, nil
}

// check validates an input struct and its stay.
func (d *Desk) check(in interface{}, checkIn, checkOut time.Time) error {
	if err := d.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, fe.Field()+" is required")
			case "room":
				msgs = append(msgs, fmt.Sprintf("%s %q is not a known room", fe.Field(), fe.Value()))
			default:
				msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
			}
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
	}
	return validateStay(checkIn, checkOut)
}

func (d *Desk) day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return DayIn(t, d.cfg.Location)
}

func (d *Desk) local(r Reservation) Reservation {
	r.CheckIn = d.day(r.CheckIn)
	r.CheckOut = d.day(r.CheckOut)
	return r
}

func conflictErr(room string, checkIn, checkOut time.Time, rs []Reservation, excludeID string) error {
	cs := Conflicts(room, checkIn, checkOut, rs, excludeID)
	if len(cs) == 0 {
		return nil
	}
	c := cs[0]
	return fmt.Errorf("%w: %s is booked from %s to %s", ErrConflict, room, FormatDay(c.CheckIn), FormatDay(c.CheckOut))
}

// storeErr passes domain errors and cancellations through and marks anything
// else as a store failure.
func storeErr(err error) error {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer("").Start(ctx, name, trace.WithAttributes(attrs...))
}

func spanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
