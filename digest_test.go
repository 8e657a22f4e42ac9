package frontdesk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDigest(t *testing.T) {
	rs := []Reservation{
		booking("leaving", "Torch Lake", "2024-04-07", "2024-04-10"),
		booking("arriving", "Torch Lake", "2024-04-10", "2024-04-12"),
		booking("staying", "Elk Lake", "2024-04-08", "2024-04-14"),
		booking("later", "Clam Lake", "2024-04-20", "2024-04-22"),
	}

	dg, err := BuildDigest(rs, day("2024-04-10").Add(9*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "2024-04-10", FormatDay(dg.Day))
	assert.Equal(t, []string{"arriving"}, ids(dg.CheckingIn))
	assert.Equal(t, []string{"leaving"}, ids(dg.CheckingOut))
}

func TestBuildDigestQuietDay(t *testing.T) {
	rs := []Reservation{
		booking("staying", "Elk Lake", "2024-04-08", "2024-04-14"),
	}

	dg, err := BuildDigest(rs, day("2024-04-10"))
	require.NoError(t, err)
	assert.NotNil(t, dg.CheckingIn)
	assert.NotNil(t, dg.CheckingOut)
	assert.Empty(t, dg.CheckingIn)
	assert.Empty(t, dg.CheckingOut)
}

func TestBuildDigestRejectsZeroNightStay(t *testing.T) {
	rs := []Reservation{
		booking("broken", "Elk Lake", "2024-04-10", "2024-04-10"),
	}

	_, err := BuildDigest(rs, day("2024-04-10"))
	assert.ErrorIs(t, err, ErrValidation)
}
