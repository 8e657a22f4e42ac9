package frontdesk

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortField names a reservation field the list view can be ordered by.
type SortField string

const (
	SortByFirstName SortField = "firstName"
	SortByLastName  SortField = "lastName"
	SortByCheckIn   SortField = "checkIn"
	SortByCheckOut  SortField = "checkOut"
	SortByRoomName  SortField = "roomName"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 10

// Query describes one page of the reservation list.
type Query struct {
	// Search is matched case-insensitively, untrimmed, against "first last".
	Search        string
	SortField     SortField
	SortDirection SortDirection
	// Page is 1-based.
	Page     int
	PageSize int
	// Locale drives string ordering. The zero tag uses the root collation.
	Locale language.Tag
}

// Page is the result of a Query.
type Page struct {
	Items      []Reservation `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	Total      int           `json:"total"`
}

// QueryReservations filters, sorts and paginates reservations. The input
// slice is not modified. Sorting is stable, and descending order is the
// ascending comparison negated, so equal keys keep their input order in both
// directions. A page outside [1, TotalPages] yields no items.
func QueryReservations(reservations []Reservation, q Query) (Page, error) {
	cmp, err := comparator(q.SortField, q.Locale)
	if err != nil {
		return Page{}, err
	}
	switch q.SortDirection {
	case "", Ascending:
	case Descending:
		if asc := cmp; asc != nil {
			cmp = func(a, b Reservation) int { return -asc(a, b) }
		}
	default:
		return Page{}, fmt.Errorf("%w: unknown sort direction %q", ErrValidation, q.SortDirection)
	}

	needle := strings.ToLower(q.Search)
	matched := make([]Reservation, 0, len(reservations))
	for _, r := range reservations {
		if needle == "" || strings.Contains(strings.ToLower(r.GuestName()), needle) {
			matched = append(matched, r)
		}
	}

	if cmp != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			return cmp(matched[i], matched[j]) < 0
		})
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(matched)
	page := Page{
		Items:      []Reservation{},
		Page:       q.Page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
		Total:      total,
	}
	if q.Page < 1 || q.Page > page.TotalPages {
		return page, nil
	}

	start := (q.Page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	page.Items = matched[start:end]
	return page, nil
}

// comparator returns the ascending comparison for field, or nil when no
// ordering was asked for.
func comparator(field SortField, locale language.Tag) (func(a, b Reservation) int, error) {
	switch field {
	case "":
		return nil, nil
	case SortByFirstName, SortByLastName, SortByRoomName:
		// Collators are not safe for concurrent use.
		col := collate.New(locale)
		key := stringKey(field)
		return func(a, b Reservation) int {
			return col.CompareString(key(a), key(b))
		}, nil
	case SortByCheckIn:
		return func(a, b Reservation) int { return a.CheckIn.Compare(b.CheckIn) }, nil
	case SortByCheckOut:
		return func(a, b Reservation) int { return a.CheckOut.Compare(b.CheckOut) }, nil
	}
	return nil, fmt.Errorf("%w: unknown sort field %q", ErrValidation, field)
}

func stringKey(field SortField) func(Reservation) string {
	switch field {
	case SortByFirstName:
		return func(r Reservation) string { return r.FirstName }
	case SortByLastName:
		return func(r Reservation) string { return r.LastName }
	default:
		return func(r Reservation) string { return r.RoomName }
	}
}
