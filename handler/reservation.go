package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phbpx/frontdesk"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

type reservationRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RoomName  string `json:"room_name"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
}

type reservationView struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	GuestName string    `json:"guest_name"`
	RoomName  string    `json:"room_name"`
	CheckIn   string    `json:"check_in"`
	CheckOut  string    `json:"check_out"`
	Nights    int       `json:"nights"`
	InSeason  bool      `json:"in_season"`
	CreatedAt time.Time `json:"created_at"`
}

func toView(r frontdesk.Reservation) reservationView {
	return reservationView{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		GuestName: r.GuestName(),
		RoomName:  r.RoomName,
		CheckIn:   frontdesk.FormatDay(r.CheckIn),
		CheckOut:  frontdesk.FormatDay(r.CheckOut),
		Nights:    r.Nights(),
		InSeason:  r.InSeason,
		CreatedAt: r.CreatedAt,
	}
}

func toViews(rs []frontdesk.Reservation) []reservationView {
	out := make([]reservationView, len(rs))
	for i, r := range rs {
		out[i] = toView(r)
	}
	return out
}

type ReservationHandler struct {
	desk *frontdesk.Desk
	log  *otelzap.SugaredLogger
}

func NewReservationHandler(desk *frontdesk.Desk, log *otelzap.SugaredLogger) *ReservationHandler {
	return &ReservationHandler{
		desk: desk,
		log:  log,
	}
}

// Mount registers the front-desk routes on r.
func (rh ReservationHandler) Mount(r chi.Router) {
	r.Get("/rooms", rh.Rooms)
	r.Get("/availability", rh.Availability)
	r.Get("/calendar", rh.Calendar)
	r.Get("/today", rh.Today)

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", rh.List)
		r.Post("/", rh.Create)
		r.Get("/{id}", rh.GetByID)
		r.Put("/{id}", rh.Update)
		r.Delete("/{id}", rh.Delete)
	})
}

func (rh ReservationHandler) Rooms(rw http.ResponseWriter, r *http.Request) {
	respond(r.Context(), rw, http.StatusOK, map[string][]string{"rooms": rh.desk.Rooms()})
}

func (rh ReservationHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := r.URL.Query()

	page, err := intParam("page", v.Get("page"), 1)
	if err != nil {
		rh.fail(ctx, rw, "List", err)
		return
	}
	size, err := intParam("page_size", v.Get("page_size"), 0)
	if err != nil {
		rh.fail(ctx, rw, "List", err)
		return
	}

	result, err := rh.desk.Query(ctx, frontdesk.Query{
		Search:        v.Get("search"),
		SortField:     frontdesk.SortField(v.Get("sort")),
		SortDirection: frontdesk.SortDirection(v.Get("dir")),
		Page:          page,
		PageSize:      size,
	})
	if err != nil {
		rh.fail(ctx, rw, "List", err)
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"items":       toViews(result.Items),
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total_pages": result.TotalPages,
		"total":       result.Total,
	})
}

func (rh ReservationHandler) GetByID(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		rh.fail(ctx, rw, "GetByID", err)
		return
	}

	res, err := rh.desk.Get(ctx, id)
	if err != nil {
		rh.fail(ctx, rw, "GetByID", err)
		return
	}

	respond(ctx, rw, http.StatusOK, toView(res))
}

func (rh ReservationHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reservationRequest
	if err := decode(r, &req); err != nil {
		rh.fail(ctx, rw, "Create", err)
		return
	}
	checkIn, checkOut, err := rh.stay(req)
	if err != nil {
		rh.fail(ctx, rw, "Create", err)
		return
	}

	res, err := rh.desk.Create(ctx, frontdesk.NewReservationInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoomName:  req.RoomName,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	})
	if err != nil {
		rh.fail(ctx, rw, "Create", err)
		return
	}

	respond(ctx, rw, http.StatusCreated, toView(res))
}

func (rh ReservationHandler) Update(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		rh.fail(ctx, rw, "Update", err)
		return
	}

	var req reservationRequest
	if err := decode(r, &req); err != nil {
		rh.fail(ctx, rw, "Update", err)
		return
	}
	checkIn, checkOut, err := rh.stay(req)
	if err != nil {
		rh.fail(ctx, rw, "Update", err)
		return
	}

	res, err := rh.desk.Update(ctx, id, frontdesk.UpdateReservationInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoomName:  req.RoomName,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	})
	if err != nil {
		rh.fail(ctx, rw, "Update", err)
		return
	}

	respond(ctx, rw, http.StatusOK, toView(res))
}

func (rh ReservationHandler) Delete(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := idParam(r)
	if err != nil {
		rh.fail(ctx, rw, "Delete", err)
		return
	}

	if err := rh.desk.Delete(ctx, id); err != nil {
		rh.fail(ctx, rw, "Delete", err)
		return
	}

	respond(ctx, rw, http.StatusNoContent, nil)
}

func (rh ReservationHandler) Availability(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := r.URL.Query()
	loc := rh.desk.Location()

	checkIn, err := dayParam(v.Get("check_in"), loc)
	if err != nil {
		rh.fail(ctx, rw, "Availability", err)
		return
	}
	checkOut, err := dayParam(v.Get("check_out"), loc)
	if err != nil {
		rh.fail(ctx, rw, "Availability", err)
		return
	}

	room := v.Get("room")
	ok, err := rh.desk.CheckAvailability(ctx, room, checkIn, checkOut, v.Get("exclude"))
	if err != nil {
		rh.fail(ctx, rw, "Availability", err)
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"room":      room,
		"check_in":  frontdesk.FormatDay(checkIn),
		"check_out": frontdesk.FormatDay(checkOut),
		"available": ok,
	})
}

type dayView struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Today   bool   `json:"today"`
}

type cellView struct {
	Day         string             `json:"day"`
	Kind        frontdesk.CellKind `json:"kind"`
	Reservation *reservationView   `json:"reservation,omitempty"`
	Arriving    *reservationView   `json:"arriving,omitempty"`
}

type roomRow struct {
	Room  string     `json:"room"`
	Cells []cellView `json:"cells"`
}

func (rh ReservationHandler) Calendar(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := r.URL.Query()

	view, err := frontdesk.ParseView(v.Get("view"))
	if err != nil {
		rh.fail(ctx, rw, "Calendar", err)
		return
	}
	anchor, err := dayParam(v.Get("date"), rh.desk.Location())
	if err != nil {
		rh.fail(ctx, rw, "Calendar", err)
		return
	}

	cal, err := rh.desk.Calendar(ctx, view, anchor)
	if err != nil {
		rh.fail(ctx, rw, "Calendar", err)
		return
	}

	days := make([]dayView, len(cal.Days))
	for i, d := range cal.Days {
		days[i] = dayView{
			Date:    frontdesk.FormatDay(d.Date),
			Weekday: d.Date.Weekday().String()[:3],
			Today:   d.Today,
		}
	}

	rows := make([]roomRow, 0, len(cal.Occupancy.Rooms))
	for _, room := range cal.Occupancy.Rooms {
		cells := cal.Occupancy.Row(room)
		row := roomRow{Room: room, Cells: make([]cellView, len(cells))}
		for i, c := range cells {
			cv := cellView{Day: frontdesk.FormatDay(c.Day), Kind: c.Kind}
			if c.Reservation != nil {
				rv := toView(*c.Reservation)
				cv.Reservation = &rv
			}
			if c.Arriving != nil {
				av := toView(*c.Arriving)
				cv.Arriving = &av
			}
			row.Cells[i] = cv
		}
		rows = append(rows, row)
	}

	warnings := make([]string, 0, len(cal.Occupancy.Collisions))
	for _, c := range cal.Occupancy.Collisions {
		warnings = append(warnings, fmt.Sprintf("%s: reservation %s overlaps reservation %s", c.Room, c.Hidden.ID, c.Shown.ID))
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"view":     cal.View,
		"label":    cal.Label,
		"anchor":   frontdesk.FormatDay(cal.Anchor),
		"previous": frontdesk.FormatDay(frontdesk.Step(cal.View, cal.Anchor, -1)),
		"next":     frontdesk.FormatDay(frontdesk.Step(cal.View, cal.Anchor, 1)),
		"days":     days,
		"rooms":    rows,
		"warnings": warnings,
	})
}

func (rh ReservationHandler) Today(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	day, err := dayParam(r.URL.Query().Get("date"), rh.desk.Location())
	if err != nil {
		rh.fail(ctx, rw, "Today", err)
		return
	}

	dg, err := rh.desk.Digest(ctx, day)
	if err != nil {
		rh.fail(ctx, rw, "Today", err)
		return
	}

	respond(ctx, rw, http.StatusOK, map[string]interface{}{
		"day":          frontdesk.FormatDay(dg.Day),
		"checking_in":  toViews(dg.CheckingIn),
		"checking_out": toViews(dg.CheckingOut),
	})
}

func (rh ReservationHandler) stay(req reservationRequest) (time.Time, time.Time, error) {
	loc := rh.desk.Location()
	checkIn, err := dayParam(req.CheckIn, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := dayParam(req.CheckOut, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

func (rh ReservationHandler) fail(ctx context.Context, rw http.ResponseWriter, op string, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		rh.log.Ctx(ctx).Errorw(op, "kind", kind, "error", err.Error())
	} else {
		rh.log.Ctx(ctx).Infow(op, "kind", kind, "error", err.Error())
	}
	respondErr(ctx, rw, err)
}

func idParam(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", fmt.Errorf("%w: ID is not in its proper form", frontdesk.ErrValidation)
	}
	return id.String(), nil
}
