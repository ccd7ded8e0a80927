package house

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/smart-home/internal/domain/house"
)

// TestDecodeCommand_Overlay converts user words into a state overlay.
func TestDecodeCommand_Overlay(t *testing.T) {
	t.Parallel()

	cmd, err := DecodeCommand(map[string]any{
		"door":           "OPEN",
		"light":          "off",
		"target_temp":    float64(70),
		"alarm_passcode": "1234",
		"lock_request":   "unlock",
		"lock_passcode":  "9999",
		"hvac_mode":      "cool",
		"hvac_state":     "on",
	})
	require.NoError(t, err)

	s, err := cmd.State()
	require.NoError(t, err)

	require.True(t, s.Door.Is(true))
	require.True(t, s.Light.Is(false))
	require.True(t, s.TargetTemperature.Is(70))
	require.True(t, s.GivenPasscode.Is("1234"))
	require.True(t, s.LockRequest.Is(domain.RequestUnlock))
	require.True(t, s.GivenLockPasscode.Is("9999"))
	require.True(t, s.HVACMode.Is(domain.ModeChiller))
	require.True(t, s.Chiller.Is(true))
	require.False(t, s.Heater.IsSet())
	require.False(t, s.Proximity.IsSet())
}

// TestDecodeCommand_Rejects covers unknown keys and out-of-vocabulary values.
func TestDecodeCommand_Rejects(t *testing.T) {
	t.Parallel()

	_, err := DecodeCommand(map[string]any{"garage": "open"})
	require.ErrorIs(t, err, ErrInvalidValue)

	cases := []map[string]any{
		{"door": "ajar"},
		{"lock_request": "toggle"},
		{"hvac_mode": "fan"},
		{"hvac_mode": "heat", "hvac_state": "maybe"},
		{"hvac_state": "on"},
		{"target_temp": 200},
		{"target_temp": 49},
		{"alarm_delay": 0},
		{"night_start": 9999},
		{"night_end": 1260},
		{"current_time": 2575},
		{"current_time": -2},
	}

	for _, m := range cases {
		cmd, err := DecodeCommand(m)
		require.NoError(t, err, "%v", m)

		_, err = cmd.State()
		require.ErrorIs(t, err, ErrInvalidValue, "%v", m)
	}
}

// TestDecodeCommand_NumberBounds accepts the edges of every numeric range.
func TestDecodeCommand_NumberBounds(t *testing.T) {
	t.Parallel()

	cmd, err := DecodeCommand(map[string]any{
		"target_temp":  80,
		"night_start":  2359,
		"night_end":    0,
		"current_time": -1,
	})
	require.NoError(t, err)

	s, err := cmd.State()
	require.NoError(t, err)
	require.True(t, s.TargetTemperature.Is(80))
	require.True(t, s.NightStart.Is(2359))
	require.True(t, s.CurrentTime.Is(-1))
}

// TestView_UserVocabulary renders known fields and hides passcodes.
func TestView_UserVocabulary(t *testing.T) {
	t.Parallel()

	s := domain.State{
		Door:          domain.Some(false),
		Proximity:     domain.Some(true),
		Temperature:   domain.Some(68),
		HVACMode:      domain.Some(domain.ModeHeater),
		Heater:        domain.Some(true),
		AlarmPasscode: domain.Some("1234"),
		LockPasscode:  domain.Some("0000"),
	}

	view := View(s)

	require.Equal(t, map[string]any{
		"door":        Closed,
		"proximity":   Occupied,
		"temperature": 68,
		"hvac_mode":   Heat,
		"hvac_state":  On,
	}, view)
}

// TestResponse_Snapshot renders the snapshot envelope.
func TestResponse_Snapshot(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)

	response := Response(domain.Snapshot{
		House:           "lake",
		Connected:       true,
		State:           domain.State{Light: domain.Some(true)},
		Log:             []string{"[Mar 14,2026 23:30]: Light on"},
		LightsOn:        90 * time.Second,
		GroupExperiment: "2",
		UpdatedAt:       at,
	})

	require.Equal(t, "lake", response["house"])
	require.Equal(t, true, response["connected"])
	require.Equal(t, map[string]any{"light": On}, response["state"])
	require.Equal(t, []any{"[Mar 14,2026 23:30]: Light on"}, response["log"])
	require.InDelta(t, 90.0, response["lights_on_seconds"], 0.001)
	require.Equal(t, "2", response["group_experiment"])
	require.Equal(t, "2026-03-14T23:30:00Z", response["updated_at"])
}
