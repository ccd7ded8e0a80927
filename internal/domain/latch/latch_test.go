package latch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestMatch covers prefixes, case, length and empty candidates.
func TestMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		truth     string
		candidate string
		want      bool
	}{
		{"1234", "1234", true},
		{"1234", "123", false},
		{"1234", "12345", false},
		{"1234", "", false},
		{"", "", false},
		{"abcd", "ABCD", false},
		{"1234", "4321", false},
		{"", "1234", false},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Match(tc.truth, tc.candidate), "truth=%q candidate=%q", tc.truth, tc.candidate)
	}
}

// TestLatch_LockFailsWithIncorrectPasscode keeps the latch unlocked and logs the denial.
func TestLatch_LockFailsWithIncorrectPasscode(t *testing.T) {
	t.Parallel()

	l := New("1234", nil)

	require.False(t, l.Lock("9999"))
	require.False(t, l.IsLocked())
	require.Equal(t, "Invalid passcode. Lock request denied.", l.Log()[0].Message)
}

// TestLatch_LockSucceedsWithCorrectPasscode locks the latch.
func TestLatch_LockSucceedsWithCorrectPasscode(t *testing.T) {
	t.Parallel()

	l := New("1234", nil)

	require.True(t, l.Lock("1234"))
	require.True(t, l.IsLocked())
	require.Equal(t, "Door LOCKED successfully.", l.Log()[0].Message)
}

// TestLatch_Unlock covers both unlock outcomes.
func TestLatch_Unlock(t *testing.T) {
	t.Parallel()

	l := New("1234", nil)
	l.Lock("1234")

	require.True(t, l.Unlock("9999"))
	require.True(t, l.IsLocked())

	require.False(t, l.Unlock("1234"))
	require.False(t, l.IsLocked())

	log := l.Log()
	require.Len(t, log, 3)
	require.Equal(t, "Invalid passcode. Unlock request denied.", log[1].Message)
	require.Equal(t, "Door UNLOCKED successfully.", log[2].Message)
}

// TestLatch_PrefixNeverMatches guards against length-prefix leniency.
func TestLatch_PrefixNeverMatches(t *testing.T) {
	t.Parallel()

	l := New("1234", nil)

	require.False(t, l.Lock("12"))
	require.False(t, l.Lock("12340"))
	require.False(t, l.Lock(""))
	require.False(t, l.IsLocked())
}
