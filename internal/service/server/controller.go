package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/smart-home/internal/audit"
	"github.com/oshokin/smart-home/internal/config"
	domain "github.com/oshokin/smart-home/internal/domain/house"
	"github.com/oshokin/smart-home/internal/evaluator"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/publisher/mqtt"
)

// publishTimeout bounds the broker acknowledgement while the house lock is held.
const publishTimeout = 2 * time.Second

// Hub is the connection to the hardware of one house.
type Hub interface {
	GetState(ctx context.Context) (domain.State, error)
	SetState(ctx context.Context, s domain.State) error
	Close() error
}

// Publisher receives every evaluated state.
type Publisher interface {
	Publish(ctx context.Context, event mqtt.Event) error
}

// controller owns the state of one house. Evaluations are serialized by mu,
// so at most one is in flight per house.
type controller struct {
	// name identifies the house.
	name string
	// group is the report group of the house.
	group string
	// interval is the hub polling period.
	interval time.Duration
	// hub is nil for a detached house.
	hub Hub
	// publisher is nil when publishing is disabled.
	publisher Publisher
	// publishTimeout bounds a single publish.
	publishTimeout time.Duration
	// evaluator computes corrected states.
	evaluator *evaluator.Evaluator
	// clock stamps evaluations and drives light accounting.
	clock audit.Clock

	mu        sync.Mutex
	state     domain.State
	log       []string
	connected bool
	updatedAt time.Time
	// lightsOn is the light time accumulated up to lightSince.
	lightsOn time.Duration
	// lightSince is when the light was last seen turning on; zero while it is off.
	lightSince time.Time
}

// newController builds a controller with the initial state taken from the house settings.
func newController(h config.House, hub Hub, publisher Publisher, ev *evaluator.Evaluator, clock audit.Clock) *controller {
	return &controller{
		name:      h.Name,
		group:     h.GroupExperiment,
		interval:  h.PollInterval,
		hub:       hub,
		publisher: publisher,
		evaluator: ev,
		clock:     clock,
		state:     initialState(h),

		publishTimeout: publishTimeout,
	}
}

// initialState seeds the settings a house starts with. Hardware readings arrive with the first refresh.
func initialState(h config.House) domain.State {
	s := domain.State{
		TargetTemperature:   domain.Some(h.TargetTemp),
		AlarmDelay:          domain.Some(h.AlarmDelay),
		AlarmArmed:          domain.Some(false),
		AlarmActive:         domain.Some(false),
		Door:                domain.Some(false),
		Lock:                domain.Some(false),
		Light:               domain.Some(false),
		Proximity:           domain.Some(false),
		ElectronicOperation: domain.Some(h.LockPasscode != ""),
		KeylessEntry:        domain.Some(false),
		NightLock:           domain.Some(false),
		IntruderSensorMode:  domain.Some(false),
	}

	if h.AlarmPasscode != "" {
		s.AlarmPasscode = domain.Some(h.AlarmPasscode)
	}

	if h.LockPasscode != "" {
		s.LockPasscode = domain.Some(h.LockPasscode)
	}

	// Both bounds zero means no window was configured.
	if h.NightStart != h.NightEnd {
		s.NightStart = domain.Some(h.NightStart)
		s.NightEnd = domain.Some(h.NightEnd)
	}

	return s
}

// Apply merges a user command over the current state, evaluates and pushes the result.
// A failed hub push is reported through Snapshot.Connected, not as an error.
func (c *controller) Apply(ctx context.Context, overlay domain.State) domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Entering the alarm passcode is a disarm attempt.
	if overlay.GivenPasscode.IsSet() && !overlay.AlarmArmed.IsSet() {
		overlay.AlarmArmed = domain.Some(false)
	}

	logger.DebugKV(ctx, "Applying command", "fields", overlay.Map())

	if err := c.evaluate(ctx, domain.Merge(c.state, overlay)); err != nil {
		logger.WarnKV(ctx, "Hub update failed", "error", err)
	}

	return c.snapshotLocked()
}

// Refresh pulls the hub readings, evaluates them and pushes corrections.
// A detached house is simply re-evaluated.
func (c *controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	proposed := c.state

	if c.hub != nil {
		readings, err := c.hub.GetState(ctx)
		if err != nil {
			c.connected = false
			return fmt.Errorf("read hub: %w", err)
		}

		c.connected = true
		proposed = domain.Merge(proposed, readings)
	}

	return c.evaluate(ctx, proposed)
}

// evaluate runs the evaluator and commits its result. Callers hold mu.
func (c *controller) evaluate(ctx context.Context, proposed domain.State) error {
	out, log := c.evaluator.Evaluate(proposed)
	now := c.clock.Now()

	for _, line := range log.Lines() {
		logger.Debugf(ctx, "%s", line)
	}

	if violations := domain.Violations(out); len(violations) > 0 {
		logger.WarnKV(ctx, "Evaluated state breaks an invariant", "violations", violations)
	}

	c.account(now, domain.On(out.Light))

	// An explicit time applies to one evaluation only.
	out.CurrentTime = domain.None[int]()

	c.state = out
	c.log = log.Lines()
	c.updatedAt = now

	c.publish(ctx, out, log, now)

	if c.hub == nil {
		return nil
	}

	if err := c.hub.SetState(ctx, out); err != nil {
		c.connected = false
		return fmt.Errorf("write hub: %w", err)
	}

	c.connected = true

	return nil
}

func (c *controller) publish(ctx context.Context, s domain.State, log *audit.Log, at time.Time) {
	if c.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	if err := c.publisher.Publish(ctx, mqtt.NewEvent(c.name, s, log, at)); err != nil {
		logger.WarnKV(ctx, "Failed to publish state", "error", err)
	}
}

// account folds the time the light stayed on into lightsOn.
func (c *controller) account(now time.Time, lightOn bool) {
	if !c.lightSince.IsZero() {
		c.lightsOn += now.Sub(c.lightSince)
		c.lightSince = time.Time{}
	}

	if lightOn {
		c.lightSince = now
	}
}

// restoreLightsOn resumes light accounting from a recorded total.
func (c *controller) restoreLightsOn(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lightsOn = d
}

// Snapshot returns the current status of the house.
func (c *controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *controller) snapshotLocked() domain.Snapshot {
	lightsOn := c.lightsOn
	if !c.lightSince.IsZero() {
		lightsOn += c.clock.Now().Sub(c.lightSince)
	}

	log := make([]string, len(c.log))
	copy(log, c.log)

	return domain.Snapshot{
		House:           c.name,
		Connected:       c.hub == nil || c.connected,
		State:           c.state,
		Log:             log,
		LightsOn:        lightsOn,
		GroupExperiment: c.group,
		UpdatedAt:       c.updatedAt,
	}
}

// Close releases the hub connection.
func (c *controller) Close() error {
	if c.hub == nil {
		return nil
	}

	return c.hub.Close()
}
