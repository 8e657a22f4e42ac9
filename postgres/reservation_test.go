package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/phbpx/frontdesk"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, frontdesk.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), frontdesk.ErrNotFound},
		{"exclusion", &pq.Error{Code: exclusionViolation, Constraint: "reservations_no_overlap"}, frontdesk.ErrConflict},
		{"unique", &pq.Error{Code: uniqueViolation, Constraint: "reservations_pkey"}, frontdesk.ErrConflict},
		{"check", &pq.Error{Code: checkViolation, Constraint: "reservations_stay_check"}, frontdesk.ErrValidation},
		{"bad uuid", &pq.Error{Code: invalidTextRepresentation}, frontdesk.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err, "r1"), tt.want)
		})
	}
}

func TestMapErrorPassesOtherErrorsThrough(t *testing.T) {
	boom := errors.New("connection reset by peer")
	assert.Equal(t, boom, mapError(boom, "r1"))

	deadlock := &pq.Error{Code: "40P01"}
	err := mapError(deadlock, "r1")
	assert.Equal(t, deadlock, err)
	assert.NotErrorIs(t, err, frontdesk.ErrConflict)
}
