package frontdesk

import (
	"fmt"
	"strings"
	"time"
)

// View is the shape of a calendar window.
type View string

const (
	DayView   View = "day"
	WeekView  View = "week"
	MonthView View = "month"
)

// ParseView parses a view name, case-insensitively. Empty means WeekView.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return WeekView, nil
	case DayView, WeekView, MonthView:
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown calendar view %q", ErrValidation, s)
}

// ParseWeekday parses an English weekday name such as "sunday" or "Mon".
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			if strings.HasPrefix(strings.ToLower(d.String()), name) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrValidation, s)
}

// Window returns the days a view shows around anchor: the anchor day, the
// week containing it, or its month padded with days of the adjacent months
// out to whole weeks.
func Window(view View, anchor time.Time, weekStart time.Weekday) ([]time.Time, error) {
	anchor = DayStart(anchor)
	switch view {
	case DayView:
		return []time.Time{anchor}, nil
	case WeekView:
		return daysBetween(startOfWeek(anchor, weekStart), 7), nil
	case MonthView:
		first := startOfMonth(anchor)
		last := AddDays(first.AddDate(0, 1, 0), -1)
		start := startOfWeek(first, weekStart)
		end := AddDays(startOfWeek(last, weekStart), 6)
		return daysBetween(start, Nights(start, end)+1), nil
	}
	return nil, fmt.Errorf("%w: unknown calendar view %q", ErrValidation, view)
}

// Step moves anchor n windows forward (or back for negative n). Month steps
// land on the first of the month.
func Step(view View, anchor time.Time, n int) time.Time {
	switch view {
	case DayView:
		return AddDays(anchor, n)
	case MonthView:
		return startOfMonth(anchor).AddDate(0, n, 0)
	default:
		return AddDays(anchor, 7*n)
	}
}

func startOfWeek(day time.Time, weekStart time.Weekday) time.Time {
	back := (int(day.Weekday()) - int(weekStart) + 7) % 7
	return AddDays(day, -back)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func daysBetween(start time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := range days {
		days[i] = AddDays(start, i)
	}
	return days
}

// CellKind classifies a calendar cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellCheckIn
	CellStay
	CellCheckOut
)

var cellKindNames = [...]string{"empty", "check_in", "stay", "check_out"}

func (k CellKind) String() string {
	if k < 0 || int(k) >= len(cellKindNames) {
		return fmt.Sprintf("CellKind(%d)", int(k))
	}
	return cellKindNames[k]
}

// MarshalText encodes the kind by name.
func (k CellKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Cell is one room on one day. Reservation is nil for an empty cell.
// Arriving is set on a turnover day: the shown reservation checks out and
// Arriving checks in.
type Cell struct {
	Room        string       `json:"room"`
	Day         time.Time    `json:"day"`
	Kind        CellKind     `json:"kind"`
	Reservation *Reservation `json:"reservation,omitempty"`
	Arriving    *Reservation `json:"arriving,omitempty"`
}

// CellKey addresses a cell by room and YYYY-MM-DD day.
type CellKey struct {
	Room string
	Day  string
}

// Collision records two reservations for the same room whose stays overlap.
// Only the first, in input order, is shown in the calendar.
type Collision struct {
	Room   string      `json:"room"`
	Shown  Reservation `json:"shown"`
	Hidden Reservation `json:"hidden"`
}

// Occupancy is a room × day grid.
type Occupancy struct {
	Rooms      []string
	Days       []time.Time
	Collisions []Collision
	cells      map[CellKey]Cell
}

// Project maps every (room, day) pair to the reservation occupying it.
//
// A reservation occupies the closed range [CheckIn, CheckOut] so the checkout
// day shows as a turnover day. This is wider than the half-open range used to
// detect conflicts. When two reservations claim a cell the first in input
// order wins; if their stays truly overlap the pair is reported in
// Collisions instead of failing.
func Project(rooms []string, days []time.Time, reservations []Reservation) Occupancy {
	occ := Occupancy{
		Rooms: rooms,
		Days:  days,
		cells: make(map[CellKey]Cell, len(rooms)*len(days)),
	}
	seen := make(map[[2]string]bool)

	for _, room := range rooms {
		for _, day := range days {
			key := CellKey{Room: room, Day: FormatDay(day)}
			cell := Cell{Room: room, Day: day, Kind: CellEmpty}

			for i := range reservations {
				r := reservations[i]
				if r.RoomName != room || !within(day, r.CheckIn, r.CheckOut) {
					continue
				}
				if cell.Reservation == nil {
					cell.Reservation = &r
					cell.Kind = classify(day, r)
					continue
				}
				shown := cell.Reservation
				if Overlaps(shown.CheckIn, shown.CheckOut, r.CheckIn, r.CheckOut) {
					pair := [2]string{shown.ID, r.ID}
					if !seen[pair] {
						seen[pair] = true
						occ.Collisions = append(occ.Collisions, Collision{Room: room, Shown: *shown, Hidden: r})
					}
					continue
				}
				if cell.Kind == CellCheckOut && SameDay(day, r.CheckIn) && cell.Arriving == nil {
					cell.Arriving = &r
				}
			}

			occ.cells[key] = cell
		}
	}
	return occ
}

func classify(day time.Time, r Reservation) CellKind {
	switch {
	case SameDay(day, r.CheckIn):
		return CellCheckIn
	case SameDay(day, r.CheckOut):
		return CellCheckOut
	}
	return CellStay
}

// At returns the cell for room on day. Pairs outside the grid are empty.
func (o Occupancy) At(room string, day time.Time) Cell {
	if c, ok := o.cells[CellKey{Room: room, Day: FormatDay(day)}]; ok {
		return c
	}
	return Cell{Room: room, Day: day, Kind: CellEmpty}
}

// Row returns the cells for room in day order.
func (o Occupancy) Row(room string) []Cell {
	row := make([]Cell, len(o.Days))
	for i, day := range o.Days {
		row[i] = o.At(room, day)
	}
	return row
}

// CalendarDay is a column header.
type CalendarDay struct {
	Date  time.Time `json:"date"`
	Today bool      `json:"today"`
}

// Calendar is a projected window ready to render.
type Calendar struct {
	View      View          `json:"view"`
	Anchor    time.Time     `json:"anchor"`
	Label     string        `json:"label"`
	Days      []CalendarDay `json:"days"`
	Occupancy Occupancy     `json:"-"`
}

// BuildCalendar computes the window for view around anchor and projects the
// reservations onto it.
func BuildCalendar(view View, anchor time.Time, weekStart time.Weekday, today time.Time, rooms []string, reservations []Reservation) (Calendar, error) {
	days, err := Window(view, anchor, weekStart)
	if err != nil {
		return Calendar{}, err
	}

	cal := Calendar{
		View:      view,
		Anchor:    DayStart(anchor),
		Label:     windowLabel(view, anchor, days),
		Days:      make([]CalendarDay, len(days)),
		Occupancy: Project(rooms, days, reservations),
	}
	for i, d := range days {
		cal.Days[i] = CalendarDay{Date: d, Today: SameDay(d, today)}
	}
	return cal, nil
}

func windowLabel(view View, anchor time.Time, days []time.Time) string {
	switch view {
	case DayView:
		return anchor.Format("Jan 2, 2006")
	case MonthView:
		return anchor.Format("January 2006")
	}
	first, last := days[0], days[len(days)-1]
	switch {
	case first.Year() != last.Year():
		return first.Format("Jan 2, 2006") + " - " + last.Format("Jan 2, 2006")
	case first.Month() != last.Month():
		return first.Format("Jan 2") + " - " + last.Format("Jan 2, 2006")
	}
	return first.Format("Jan 2") + " - " + last.Format("2, 2006")
}
