package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDateInUsesZone(t *testing.T) {
	instant := time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC)
	kolkata := time.FixedZone("IST", 5*3600+1800)

	require.Equal(t, "2024-06-01", DateIn(instant, nil))
	require.Equal(t, "2024-06-02", DateIn(instant, kolkata))
}

func TestShiftDate(t *testing.T) {
	got, err := ShiftDate("2024-03-02", -5)
	require.NoError(t, err)
	require.Equal(t, "2024-02-26", got)

	_, err = ShiftDate("03/02/2024", 1)
	require.Error(t, err)
}
