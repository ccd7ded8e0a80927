package house

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/oshokin/smart-home/internal/config"
	domain "github.com/oshokin/smart-home/internal/domain/house"
)

// User-facing values.
const (
	On          = "on"
	Off         = "off"
	Open        = "open"
	Closed      = "closed"
	Occupied    = "occupied"
	Empty       = "empty"
	Lock        = "lock"
	Unlock      = "unlock"
	Arriving    = "arriving"
	NotArriving = "not_arriving"
	Armed       = "armed"
	Disarmed    = "disarmed"
	Heat        = "heat"
	Cool        = "cool"
	Active      = "active"
	Inactive    = "inactive"
)

// ErrInvalidValue is returned for a command value outside its vocabulary.
var ErrInvalidValue = errors.New("invalid value")

// Command is a user request to change a house. Absent keys are left untouched.
type Command struct {
	Door                *string `mapstructure:"door"`
	Light               *string `mapstructure:"light"`
	Proximity           *string `mapstructure:"proximity"`
	Humidifier          *string `mapstructure:"humidifier"`
	AlarmArmed          *string `mapstructure:"alarm_armed"`
	AlarmActive         *string `mapstructure:"alarm_active"`
	AlarmPasscode       *string `mapstructure:"alarm_passcode"`
	AlarmDelay          *int    `mapstructure:"alarm_delay"`
	TargetTemp          *int    `mapstructure:"target_temp"`
	HVACMode            *string `mapstructure:"hvac_mode"`
	HVACState           *string `mapstructure:"hvac_state"`
	DoorLock            *string `mapstructure:"door_lock"`
	LockRequest         *string `mapstructure:"lock_request"`
	LockPasscode        *string `mapstructure:"lock_passcode"`
	ArrivingProximity   *string `mapstructure:"arriving_proximity"`
	KeylessEntry        *string `mapstructure:"keyless_entry"`
	ElectronicOperation *string `mapstructure:"electronic_operation"`
	NightLock           *string `mapstructure:"night_lock"`
	NightStart          *int    `mapstructure:"night_start"`
	NightEnd            *int    `mapstructure:"night_end"`
	CurrentTime         *int    `mapstructure:"current_time"`
	IntruderSensorMode  *string `mapstructure:"intruder_sensor_mode"`
	IntruderDetection   *string `mapstructure:"intruder_detection"`
	AwayTimer           *string `mapstructure:"away_timer"`
}

// DecodeCommand decodes a user command. Unknown keys are rejected.
func DecodeCommand(m map[string]any) (Command, error) {
	var cmd Command

	//nolint:exhaustruct // Remaining decoder options keep their defaults.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &cmd,
	})
	if err != nil {
		return Command{}, fmt.Errorf("build decoder: %w", err)
	}

	if err := decoder.Decode(m); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}

	return cmd, nil
}

// flag maps a two-word vocabulary onto a boolean field.
type flag struct {
	value    *string
	field    *domain.Optional[bool]
	yes, no  string
	userName string
}

// State converts the command into a state overlay.
func (c Command) State() (domain.State, error) {
	var s domain.State

	flags := []flag{
		{c.Door, &s.Door, Open, Closed, "door"},
		{c.Light, &s.Light, On, Off, "light"},
		{c.Proximity, &s.Proximity, Occupied, Empty, "proximity"},
		{c.Humidifier, &s.Humidifier, On, Off, "humidifier"},
		{c.AlarmArmed, &s.AlarmArmed, Armed, Disarmed, "alarm_armed"},
		{c.AlarmActive, &s.AlarmActive, Active, Inactive, "alarm_active"},
		{c.DoorLock, &s.Lock, Lock, Unlock, "door_lock"},
		{c.ArrivingProximity, &s.ArrivingProximity, Arriving, NotArriving, "arriving_proximity"},
		{c.KeylessEntry, &s.KeylessEntry, On, Off, "keyless_entry"},
		{c.ElectronicOperation, &s.ElectronicOperation, On, Off, "electronic_operation"},
		{c.NightLock, &s.NightLock, On, Off, "night_lock"},
		{c.IntruderSensorMode, &s.IntruderSensorMode, On, Off, "intruder_sensor_mode"},
		{c.IntruderDetection, &s.IntruderDetected, On, Off, "intruder_detection"},
		{c.AwayTimer, &s.AwayTimer, On, Off, "away_timer"},
	}

	for _, f := range flags {
		if f.value == nil {
			continue
		}

		switch strings.ToLower(*f.value) {
		case f.yes:
			*f.field = domain.Some(true)
		case f.no:
			*f.field = domain.Some(false)
		default:
			return domain.State{}, fmt.Errorf("%w: %s=%q, want %s or %s", ErrInvalidValue, f.userName, *f.value, f.yes, f.no)
		}
	}

	if err := c.checkNumbers(); err != nil {
		return domain.State{}, err
	}

	setInt(&s.AlarmDelay, c.AlarmDelay)
	setInt(&s.TargetTemperature, c.TargetTemp)
	setInt(&s.NightStart, c.NightStart)
	setInt(&s.NightEnd, c.NightEnd)
	setInt(&s.CurrentTime, c.CurrentTime)

	if c.AlarmPasscode != nil {
		s.GivenPasscode = domain.Some(*c.AlarmPasscode)
	}

	if c.LockPasscode != nil {
		s.GivenLockPasscode = domain.Some(*c.LockPasscode)
	}

	if c.LockRequest != nil {
		switch strings.ToLower(*c.LockRequest) {
		case Lock:
			s.LockRequest = domain.Some(domain.RequestLock)
		case Unlock:
			s.LockRequest = domain.Some(domain.RequestUnlock)
		default:
			return domain.State{}, fmt.Errorf("%w: lock_request=%q, want lock or unlock", ErrInvalidValue, *c.LockRequest)
		}
	}

	if err := c.hvac(&s); err != nil {
		return domain.State{}, err
	}

	return s, nil
}

// checkNumbers applies the ranges the settings file enforces for the same values.
func (c Command) checkNumbers() error {
	if c.TargetTemp != nil && (*c.TargetTemp < config.MinTargetTemp || *c.TargetTemp > config.MaxTargetTemp) {
		return fmt.Errorf("%w: target_temp=%d, want %d..%d",
			ErrInvalidValue, *c.TargetTemp, config.MinTargetTemp, config.MaxTargetTemp)
	}

	if c.AlarmDelay != nil && *c.AlarmDelay <= 0 {
		return fmt.Errorf("%w: alarm_delay=%d, want a positive number of seconds", ErrInvalidValue, *c.AlarmDelay)
	}

	clock := []struct {
		value    *int
		userName string
	}{
		{c.NightStart, "night_start"},
		{c.NightEnd, "night_end"},
		{c.CurrentTime, "current_time"},
	}

	for _, t := range clock {
		if t.value == nil || config.ValidClockTime(*t.value) {
			continue
		}

		// -1 asks the evaluator to read its clock.
		if t.userName == "current_time" && *t.value == -1 {
			continue
		}

		return fmt.Errorf("%w: %s=%d, want HHMM", ErrInvalidValue, t.userName, *t.value)
	}

	return nil
}

func (c Command) hvac(s *domain.State) error {
	if c.HVACMode == nil {
		if c.HVACState != nil {
			return fmt.Errorf("%w: hvac_state needs hvac_mode", ErrInvalidValue)
		}

		return nil
	}

	var device *domain.Optional[bool]

	switch strings.ToLower(*c.HVACMode) {
	case Heat:
		s.HVACMode = domain.Some(domain.ModeHeater)
		device = &s.Heater
	case Cool:
		s.HVACMode = domain.Some(domain.ModeChiller)
		device = &s.Chiller
	default:
		return fmt.Errorf("%w: hvac_mode=%q, want heat or cool", ErrInvalidValue, *c.HVACMode)
	}

	if c.HVACState == nil {
		return nil
	}

	switch strings.ToLower(*c.HVACState) {
	case On:
		*device = domain.Some(true)
	case Off:
		*device = domain.Some(false)
	default:
		return fmt.Errorf("%w: hvac_state=%q, want on or off", ErrInvalidValue, *c.HVACState)
	}

	return nil
}

func setInt(dst *domain.Optional[int], v *int) {
	if v != nil {
		*dst = domain.Some(*v)
	}
}

// View renders a state in the user vocabulary. Fields that are not known are omitted;
// passcodes are never shown.
func View(s domain.State) map[string]any {
	view := make(map[string]any)

	words := []struct {
		key     string
		field   domain.Optional[bool]
		yes, no string
	}{
		{"door", s.Door, Open, Closed},
		{"light", s.Light, On, Off},
		{"proximity", s.Proximity, Occupied, Empty},
		{"humidifier", s.Humidifier, On, Off},
		{"alarm_armed", s.AlarmArmed, Armed, Disarmed},
		{"alarm_active", s.AlarmActive, Active, Inactive},
		{"door_lock", s.Lock, Lock, Unlock},
		{"arriving_proximity", s.ArrivingProximity, Arriving, NotArriving},
		{"keyless_entry", s.KeylessEntry, On, Off},
		{"electronic_operation", s.ElectronicOperation, On, Off},
		{"night_lock", s.NightLock, On, Off},
		{"intruder_sensor_mode", s.IntruderSensorMode, On, Off},
		{"intruder_detection", s.IntruderDetected, On, Off},
		{"panel_message", s.PanelMessage, On, Off},
	}

	for _, w := range words {
		v, ok := w.field.Get()
		if !ok {
			continue
		}

		if v {
			view[w.key] = w.yes
		} else {
			view[w.key] = w.no
		}
	}

	numbers := []struct {
		key   string
		field domain.Optional[int]
	}{
		{"temperature", s.Temperature},
		{"humidity", s.Humidity},
		{"target_temp", s.TargetTemperature},
		{"alarm_delay", s.AlarmDelay},
		{"night_start", s.NightStart},
		{"night_end", s.NightEnd},
	}

	for _, n := range numbers {
		if v, ok := n.field.Get(); ok {
			view[n.key] = v
		}
	}

	if mode, ok := s.HVACMode.Get(); ok {
		hvacState := Off

		if mode == domain.ModeHeater {
			view["hvac_mode"] = Heat

			if domain.On(s.Heater) {
				hvacState = On
			}
		} else {
			view["hvac_mode"] = Cool

			if domain.On(s.Chiller) {
				hvacState = On
			}
		}

		view["hvac_state"] = hvacState
	}

	return view
}

// Response renders a snapshot as a response map.
func Response(snap domain.Snapshot) map[string]any {
	log := make([]any, 0, len(snap.Log))
	for _, line := range snap.Log {
		log = append(log, line)
	}

	response := map[string]any{
		"house":             snap.House,
		"connected":         snap.Connected,
		"state":             View(snap.State),
		"log":               log,
		"lights_on_seconds": snap.LightsOn.Seconds(),
		"group_experiment":  snap.GroupExperiment,
	}

	if !snap.UpdatedAt.IsZero() {
		response["updated_at"] = snap.UpdatedAt.UTC().Format(time.RFC3339)
	}

	return response
}
