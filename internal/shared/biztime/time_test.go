package biztime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayBoundaries_ShiftedTimezone(t *testing.T) {
	require.NoError(t, Init("Asia/Shanghai"))
	t.Cleanup(func() { _ = Init("") })

	day, err := ParseDate("2024-03-10")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 9, 16, 0, 0, 0, time.UTC), StartOfDayUTC(day))
	assert.Equal(t, time.Date(2024, 3, 10, 15, 59, 59, 999999999, time.UTC), EndOfDayUTC(day))
}

func TestInit_RejectsUnknownZone(t *testing.T) {
	assert.Error(t, Init("Mars/Olympus"))
}
