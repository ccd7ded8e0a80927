package hub

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/oshokin/smart-home/internal/domain/house"
	"github.com/oshokin/smart-home/internal/logger"
)

// Simulator is a minimal in-process house: it answers GS and SS and nudges
// temperature and humidity after every request, like a real house would drift.
type Simulator struct {
	mu    sync.Mutex
	state house.State
}

// NewSimulator creates a house with the light on, the door open and an occupant inside.
func NewSimulator() *Simulator {
	return &Simulator{
		state: house.State{
			Temperature:         house.Some(65),
			Humidity:            house.Some(90),
			Door:                house.Some(true),
			Light:               house.Some(true),
			Proximity:           house.Some(true),
			Lock:                house.Some(true),
			ArrivingProximity:   house.Some(false),
			KeylessEntry:        house.Some(false),
			ElectronicOperation: house.Some(false),
			NightLock:           house.Some(false),
			IntruderSensorMode:  house.Some(false),
			IntruderDetected:    house.Some(false),
			PanelMessage:        house.Some(false),
			AlarmActive:         house.Some(false),
			AlarmArmed:          house.Some(false),
			Heater:              house.Some(false),
			Chiller:             house.Some(false),
			Humidifier:          house.Some(false),
			HVACMode:            house.Some(house.ModeHeater),
		},
	}
}

// State returns a copy of the simulated house.
func (s *Simulator) State() house.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Update overlays readings, as if a person toggled something in the house.
func (s *Simulator) Update(overlay house.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = house.Merge(s.state, overlay)
}

// Serve accepts connections until ctx is cancelled or the listener fails.
func (s *Simulator) Serve(ctx context.Context, lis net.Listener) error {
	ctx = logger.WithName(ctx, "hub-simulator")

	go func() {
		<-ctx.Done()

		_ = lis.Close()
	}()

	logger.InfoKV(ctx, "Simulated hub is listening", "address", lis.Addr().String())

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}

			return err
		}

		wg.Add(1)

		go func() {
			defer wg.Done()

			s.handle(ctx, conn)
		}()
	}
}

func (s *Simulator) handle(ctx context.Context, conn net.Conn) {
	done := make(chan struct{})

	defer func() {
		close(done)

		_ = conn.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	ctx = logger.WithKV(ctx, "remote", conn.RemoteAddr().String())
	logger.DebugKV(ctx, "Controller connected")

	reader := bufio.NewReader(conn)

	for {
		msg, err := readMessage(reader)
		if err != nil {
			logger.DebugKV(ctx, "Controller disconnected", "reason", err)
			return
		}

		reply := s.Handle(msg)
		if reply == "" {
			logger.WarnKV(ctx, "Unknown request", "message", msg)
			continue
		}

		if _, err := conn.Write([]byte(reply + "\n")); err != nil {
			return
		}
	}
}

// Handle answers one framed request and advances the simulation.
// It returns an empty string for requests it does not understand.
func (s *Simulator) Handle(msg string) string {
	kind, body, err := Split(msg)
	if err != nil {
		return ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.step()

	switch kind {
	case GetState:
		return EncodeUpdate(s.state)
	case SetState:
		overlay, err := DecodeParams(body)
		if err != nil {
			return ""
		}

		for _, f := range overlay.Fields() {
			if sensorFields[f] {
				overlay.Clear(f)
			}
		}

		s.state = house.Merge(s.state, overlay)

		return OK + MsgEnd
	default:
		return ""
	}
}

// step drifts the readings according to the running devices.
func (s *Simulator) step() {
	t := s.state.Temperature.Or(0)

	if house.On(s.state.Heater) {
		t++
	}

	if house.On(s.state.Chiller) {
		t--
	}

	s.state.Temperature = house.Some(t)

	h := s.state.Humidity.Or(0)
	if h > 0 && h < 100 {
		if house.On(s.state.Humidifier) {
			h--
		} else {
			h++
		}
	}

	s.state.Humidity = house.Some(h)
}

// readMessage reads up to and including the terminator. Requests are not
// newline framed, so the reader scans for the first '.'.
func readMessage(r *bufio.Reader) (string, error) {
	msg, err := r.ReadString(MsgEnd[0])
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(msg), nil
}
