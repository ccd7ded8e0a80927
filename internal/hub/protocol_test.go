package hub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/smart-home/internal/domain/house"
)

func TestEncodeGet(t *testing.T) {
	t.Parallel()

	require.Equal(t, "GS.", EncodeGet())
}

// TestEncodeSet sends actuators only, in wire order, and never secrets.
func TestEncodeSet(t *testing.T) {
	t.Parallel()

	s := house.State{
		Temperature:   house.Some(70),
		Door:          house.Some(false),
		Light:         house.Some(true),
		HVACMode:      house.Some(house.ModeChiller),
		Lock:          house.Some(true),
		AlarmPasscode: house.Some("1234"),
		LockPasscode:  house.Some("4321"),
		NightStart:    house.Some(2200),
	}

	require.Equal(t, "SS:DS=0;LS=1;HM=0;LKS=1.", EncodeSet(s))
	require.Equal(t, "SS:.", EncodeSet(house.State{}))
}

// TestDecodeUpdate parses a simulator reply, including its trailing newline.
func TestDecodeUpdate(t *testing.T) {
	t.Parallel()

	s, err := DecodeUpdate("SU:TR=65;HR=90;DS=1;LS=0;PS=1;AS=0;AA=0;HES=1;CHS=0;HM=1;HUS=0;LKS=1;XYZ=3.\n")
	require.NoError(t, err)

	require.True(t, s.Temperature.Is(65))
	require.True(t, s.Humidity.Is(90))
	require.True(t, house.On(s.Door))
	require.True(t, house.Off(s.Light))
	require.True(t, s.HVACMode.Is(house.ModeHeater))
	require.True(t, house.On(s.Lock))
	require.False(t, s.NightLock.IsSet())
}

func TestDecodeUpdateErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"SU:TR=65":      ErrMalformed,
		".":             ErrMalformed,
		"SU:TR=warm.":   ErrMalformed,
		"SU:DS=yes.":    ErrMalformed,
		"SU:DS.":        ErrMalformed,
		"OK.":           ErrUnexpectedResponse,
		"SS:DS=1;LS=1.": ErrUnexpectedResponse,
	}

	for msg, want := range cases {
		_, err := DecodeUpdate(msg)
		require.ErrorIs(t, err, want, msg)
	}
}

// TestUpdateRoundtrip encodes every hardware field and decodes it back.
func TestUpdateRoundtrip(t *testing.T) {
	t.Parallel()

	s := NewSimulator().State()

	decoded, err := DecodeUpdate(EncodeUpdate(s))
	require.NoError(t, err)
	require.Equal(t, s, decoded)
}

func TestHardware(t *testing.T) {
	t.Parallel()

	s := house.State{
		Light:         house.Some(true),
		AlarmPasscode: house.Some("1234"),
		CurrentTime:   house.Some(1200),
	}

	hw := Hardware(s)
	require.Equal(t, []house.Field{house.LightState}, hw.Fields())
	require.True(t, IsHardware(house.LockState))
	require.False(t, IsHardware(house.LockPasscode))
	require.Len(t, HardwareFields(), 19)
}
