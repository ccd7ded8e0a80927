package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/smart-home/internal/audit"
	"github.com/oshokin/smart-home/internal/domain/house"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error, completed bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if completed {
		close(t.done)
	}

	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	token paho.Token
	sent  []published
}

func (f *fakePublisher) Publish(topic string, _ byte, retained bool, payload any) paho.Token {
	b, _ := payload.([]byte)
	f.sent = append(f.sent, published{topic: topic, retained: retained, payload: b})

	return f.token
}

func TestNewClientRejectsBadRoot(t *testing.T) {
	t.Parallel()

	_, err := NewClient("tcp://127.0.0.1:1883", "id", "/smarthome")
	require.ErrorIs(t, err, ErrBadTopicRoot)

	_, err = NewClient("tcp://127.0.0.1:1883", "id", "smarthome/")
	require.ErrorIs(t, err, ErrBadTopicRoot)
}

// TestPublish encodes the event under the house topic.
func TestPublish(t *testing.T) {
	t.Parallel()

	c, err := NewClient("tcp://127.0.0.1:1883", "id", "smarthome")
	require.NoError(t, err)

	require.ErrorIs(t, c.Publish(context.Background(), Event{House: "lakeside"}), ErrNotConnected)

	fake := &fakePublisher{token: newToken(nil, true)}
	c.publisher = fake

	log := audit.NewLog(audit.ClockFunc(func() time.Time {
		return time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)
	}))
	log.Add("Light on")

	event := NewEvent("lakeside", house.State{Light: house.Some(true)}, log, time.Now())
	require.NoError(t, c.Publish(context.Background(), event))

	require.Len(t, fake.sent, 1)
	require.Equal(t, "smarthome/lakeside/state", fake.sent[0].topic)
	require.True(t, fake.sent[0].retained)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(fake.sent[0].payload, &decoded))
	require.Equal(t, "lakeside", decoded["house"])
	require.Equal(t, event.ID, decoded["id"])
	require.Equal(t, map[string]any{"LS": true}, decoded["state"])
	require.Equal(t, []any{"[Mar 14,2026 08:00]: Light on"}, decoded["log"])
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	c, err := NewClient("tcp://127.0.0.1:1883", "id", "smarthome")
	require.NoError(t, err)

	c.publisher = &fakePublisher{token: newToken(errors.New("broker gone"), true)}
	require.ErrorContains(t, c.Publish(context.Background(), Event{House: "a"}), "broker gone")

	c.publisher = &fakePublisher{token: newToken(nil, false)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, c.Publish(ctx, Event{House: "a"}), context.Canceled)
}

func TestNewEventWithoutLog(t *testing.T) {
	t.Parallel()

	event := NewEvent("a", house.State{}, nil, time.Now())
	require.NotEmpty(t, event.ID)
	require.Empty(t, event.Log)
	require.Empty(t, event.State)
}

// TestNewEvent_HidesPasscodes keeps secrets out of the broker.
func TestNewEvent_HidesPasscodes(t *testing.T) {
	t.Parallel()

	event := NewEvent("a", house.State{
		Door:              house.Some(true),
		AlarmPasscode:     house.Some("1234"),
		GivenPasscode:     house.Some("1234"),
		LockPasscode:      house.Some("0000"),
		GivenLockPasscode: house.Some("0000"),
	}, nil, time.Now())

	require.Len(t, event.State, 1)
	require.Equal(t, true, event.State[house.DoorState.Code()])
}
