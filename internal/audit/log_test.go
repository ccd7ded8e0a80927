package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLog_FormatsEntriesInOrder verifies ordering and the timestamp prefix.
func TestLog_FormatsEntriesInOrder(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, time.March, 7, 23, 30, 0, 0, time.UTC)
	log := NewLog(ClockFunc(func() time.Time { return at }))

	log.Add("Door locked")
	log.Addf("Current time: %d", 2330)

	require.Equal(t, 2, log.Len())
	require.Equal(t, []string{"Door locked", "Current time: 2330"}, log.Messages())
	require.Equal(t, "[Mar 07,2024 23:30]: Door locked", log.Lines()[0])
	require.True(t, log.Contains("2330"))
	require.False(t, log.Contains("unlocked"))
	require.Contains(t, log.String(), "\n")
}

// TestLog_ZeroValue ensures the zero value falls back to the system clock.
func TestLog_ZeroValue(t *testing.T) {
	t.Parallel()

	var log Log

	log.Add("Light on")

	entries := log.Entries()
	require.Len(t, entries, 1)
	require.WithinDuration(t, time.Now(), entries[0].Time, time.Minute)
}
