package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phbpx/frontdesk"
)

const selectColumns = `id, first_name, last_name, room_name, check_in, check_out, in_season, created_at`

type reservationRow struct {
	ID        string `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	RoomName  string `db:"room_name"`
	CheckIn   string `db:"check_in"`
	CheckOut  string `db:"check_out"`
	InSeason  bool   `db:"in_season"`
	CreatedAt string `db:"created_at"`
}

var _ frontdesk.Store = (*ReservationStore)(nil)

// ReservationStore implements frontdesk.Store.
type ReservationStore struct {
	db  *sqlx.DB
	loc *time.Location
}

// NewReservationStore returns a store whose dates are pinned to loc.
func NewReservationStore(db *sqlx.DB, loc *time.Location) *ReservationStore {
	return &ReservationStore{
		db:  db,
		loc: loc,
	}
}

func (rs ReservationStore) List(ctx context.Context) ([]frontdesk.Reservation, error) {
	var rows []reservationRow
	err := rs.db.SelectContext(ctx, &rows,
		`SELECT `+selectColumns+` FROM reservations ORDER BY check_in, created_at`)
	if err != nil {
		return nil, err
	}

	out := make([]frontdesk.Reservation, 0, len(rows))
	for _, row := range rows {
		r, err := rs.toReservation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (rs ReservationStore) Get(ctx context.Context, id string) (frontdesk.Reservation, error) {
	var row reservationRow
	err := rs.db.GetContext(ctx, &row,
		`SELECT `+selectColumns+` FROM reservations WHERE id = ?`, id)
	if err != nil {
		return frontdesk.Reservation{}, mapError(err, id)
	}
	return rs.toReservation(row)
}

func (rs ReservationStore) Create(ctx context.Context, in frontdesk.NewReservationInput) (frontdesk.Reservation, error) {
	r := frontdesk.Reservation{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		RoomName:  in.RoomName,
		CheckIn:   frontdesk.DayIn(in.CheckIn, rs.loc),
		CheckOut:  frontdesk.DayIn(in.CheckOut, rs.loc),
		InSeason:  true,
		CreatedAt: time.Now().UTC(),
	}

	_, err := rs.db.ExecContext(ctx, `
	INSERT INTO reservations (
		id, first_name, last_name, room_name, check_in, check_out, in_season, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.FirstName,
		r.LastName,
		r.RoomName,
		frontdesk.FormatDay(r.CheckIn),
		frontdesk.FormatDay(r.CheckOut),
		r.InSeason,
		r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return frontdesk.Reservation{}, mapError(err, r.ID)
	}
	return r, nil
}

func (rs ReservationStore) Update(ctx context.Context, r frontdesk.Reservation) (frontdesk.Reservation, error) {
	var (
		inSeason  bool
		createdAt string
	)
	err := rs.db.QueryRowxContext(ctx, `
	UPDATE reservations SET
		first_name = ?,
		last_name = ?,
		room_name = ?,
		check_in = ?,
		check_out = ?
	WHERE id = ?
	RETURNING in_season, created_at`,
		r.FirstName,
		r.LastName,
		r.RoomName,
		frontdesk.FormatDay(r.CheckIn),
		frontdesk.FormatDay(r.CheckOut),
		r.ID,
	).Scan(&inSeason, &createdAt)
	if err != nil {
		return frontdesk.Reservation{}, mapError(err, r.ID)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return frontdesk.Reservation{}, fmt.Errorf("reservation %s created_at: %w", r.ID, err)
	}
	r.InSeason = inSeason
	r.CreatedAt = created
	r.CheckIn = frontdesk.DayIn(r.CheckIn, rs.loc)
	r.CheckOut = frontdesk.DayIn(r.CheckOut, rs.loc)
	return r, nil
}

func (rs ReservationStore) Delete(ctx context.Context, id string) error {
	res, err := rs.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return mapError(err, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", frontdesk.ErrNotFound, id)
	}
	return nil
}

func (rs ReservationStore) toReservation(row reservationRow) (frontdesk.Reservation, error) {
	checkIn, err := frontdesk.ParseDay(row.CheckIn, rs.loc)
	if err != nil {
		return frontdesk.Reservation{}, fmt.Errorf("reservation %s check_in: %w", row.ID, err)
	}
	checkOut, err := frontdesk.ParseDay(row.CheckOut, rs.loc)
	if err != nil {
		return frontdesk.Reservation{}, fmt.Errorf("reservation %s check_out: %w", row.ID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return frontdesk.Reservation{}, fmt.Errorf("reservation %s created_at: %w", row.ID, err)
	}
	return frontdesk.Reservation{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		RoomName:  row.RoomName,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		InSeason:  row.InSeason,
		CreatedAt: created,
	}, nil
}

// mapError translates SQLite constraint failures into the frontdesk error
// kinds. The overlap triggers abort with the constraint name as message.
func mapError(err error, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", frontdesk.ErrNotFound, id)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "reservations_no_overlap"):
		return fmt.Errorf("%w: reservations_no_overlap", frontdesk.ErrConflict)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: duplicate id %s", frontdesk.ErrConflict, id)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: reservations_stay_check", frontdesk.ErrValidation)
	}
	return err
}
