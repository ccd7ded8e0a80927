package hub

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/smart-home/internal/domain/house"
)

func startSimulator(t *testing.T) (*Simulator, string) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sim := NewSimulator()
	done := make(chan error, 1)

	go func() {
		done <- sim.Serve(ctx, lis)
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return sim, lis.Addr().String()
}

// TestClient_GetAndSet talks to the simulator over TCP.
func TestClient_GetAndSet(t *testing.T) {
	t.Parallel()

	sim, addr := startSimulator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, addr, time.Second)
	require.NoError(t, err)

	defer func() { require.NoError(t, c.Close()) }()

	s, err := c.GetState(ctx)
	require.NoError(t, err)
	require.True(t, s.Temperature.Is(65))
	require.True(t, house.On(s.Door))

	err = c.SetState(ctx, house.State{
		Door:        house.Some(false),
		Heater:      house.Some(true),
		Temperature: house.Some(99),
	})
	require.NoError(t, err)

	got := sim.State()
	require.True(t, house.Off(got.Door))
	require.True(t, house.On(got.Heater))
	// Sensors are not writable. The heater warmed the house by one step.
	require.True(t, got.Temperature.Is(66))

	s, err = c.GetState(ctx)
	require.NoError(t, err)
	require.True(t, s.Temperature.Is(66))

	s, err = c.GetState(ctx)
	require.NoError(t, err)
	require.True(t, s.Temperature.Is(67))
}

func TestClient_DialFailure(t *testing.T) {
	t.Parallel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	_, err = Dial(context.Background(), addr, 200*time.Millisecond)
	require.Error(t, err)
}

func TestClient_CancelledContext(t *testing.T) {
	t.Parallel()

	_, addr := startSimulator(t)

	c, err := Dial(context.Background(), addr, time.Second)
	require.NoError(t, err)

	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.GetState(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

// TestSimulator_Handle covers the request dispatch without a network.
func TestSimulator_Handle(t *testing.T) {
	t.Parallel()

	sim := NewSimulator()

	require.Equal(t, "OK.", sim.Handle("SS:LS=0;HM=0."))
	require.True(t, house.Off(sim.State().Light))
	require.True(t, sim.State().HVACMode.Is(house.ModeChiller))

	require.Empty(t, sim.Handle("XX."))
	require.Empty(t, sim.Handle("GS"))

	sim.Update(house.State{Proximity: house.Some(false)})
	require.Contains(t, sim.Handle("GS."), "PS=0")
}
