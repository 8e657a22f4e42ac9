package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/phbpx/frontdesk"
)

// lib/pq errorCodeNames
// https://github.com/lib/pq/blob/master/error.go#L178
const (
	uniqueViolation           = "23505"
	checkViolation            = "23514"
	exclusionViolation        = "23P01"
	invalidTextRepresentation = "22P02"
)

// Dates travel as YYYY-MM-DD text in both directions so the session time zone
// never moves a stay by a day.
const selectColumns = `
	id,
	first_name,
	last_name,
	room_name,
	to_char(check_in, 'YYYY-MM-DD') AS check_in,
	to_char(check_out, 'YYYY-MM-DD') AS check_out,
	in_season,
	created_at`

type reservationRow struct {
	ID        string    `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	RoomName  string    `db:"room_name"`
	CheckIn   string    `db:"check_in"`
	CheckOut  string    `db:"check_out"`
	InSeason  bool      `db:"in_season"`
	CreatedAt time.Time `db:"created_at"`
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
	query := `SELECT ` + selectColumns + ` FROM reservations ORDER BY check_in, created_at`

	var rows []reservationRow
	if err := rs.db.SelectContext(ctx, &rows, query); err != nil {
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
	query := `SELECT ` + selectColumns + ` FROM reservations WHERE id = $1`

	var row reservationRow
	if err := rs.db.GetContext(ctx, &row, query, id); err != nil {
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

	tx, err := rs.db.BeginTxx(ctx, nil)
	if err != nil {
		return frontdesk.Reservation{}, err
	}

	query := `
	INSERT INTO reservations (
		id, first_name, last_name, room_name, check_in, check_out, in_season, created_at
	) VALUES (
		$1, $2, $3, $4, $5::date, $6::date, $7, $8
	)`

	_, err = tx.ExecContext(ctx, query,
		r.ID,
		r.FirstName,
		r.LastName,
		r.RoomName,
		frontdesk.FormatDay(r.CheckIn),
		frontdesk.FormatDay(r.CheckOut),
		r.InSeason,
		r.CreatedAt,
	)
	if err != nil {
		tx.Rollback()
		return frontdesk.Reservation{}, mapError(err, r.ID)
	}

	if err := tx.Commit(); err != nil {
		return frontdesk.Reservation{}, mapError(err, r.ID)
	}
	return r, nil
}

func (rs ReservationStore) Update(ctx context.Context, r frontdesk.Reservation) (frontdesk.Reservation, error) {
	query := `
	UPDATE reservations SET
		first_name = $2,
		last_name = $3,
		room_name = $4,
		check_in = $5::date,
		check_out = $6::date
	WHERE id = $1
	RETURNING in_season, created_at`

	err := rs.db.QueryRowxContext(ctx, query,
		r.ID,
		r.FirstName,
		r.LastName,
		r.RoomName,
		frontdesk.FormatDay(r.CheckIn),
		frontdesk.FormatDay(r.CheckOut),
	).Scan(&r.InSeason, &r.CreatedAt)
	if err != nil {
		return frontdesk.Reservation{}, mapError(err, r.ID)
	}

	r.CheckIn = frontdesk.DayIn(r.CheckIn, rs.loc)
	r.CheckOut = frontdesk.DayIn(r.CheckOut, rs.loc)
	return r, nil
}

func (rs ReservationStore) Delete(ctx context.Context, id string) error {
	res, err := rs.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
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
	return frontdesk.Reservation{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		RoomName:  row.RoomName,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		InSeason:  row.InSeason,
		CreatedAt: row.CreatedAt,
	}, nil
}

// mapError translates driver errors into the frontdesk error kinds.
func mapError(err error, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", frontdesk.ErrNotFound, id)
	}

	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		switch pqerr.Code {
		case exclusionViolation, uniqueViolation:
			return fmt.Errorf("%w: %s", frontdesk.ErrConflict, pqerr.Constraint)
		case checkViolation:
			return fmt.Errorf("%w: %s", frontdesk.ErrValidation, pqerr.Constraint)
		case invalidTextRepresentation:
			return fmt.Errorf("%w: %s", frontdesk.ErrNotFound, id)
		}
	}
	return err
}
