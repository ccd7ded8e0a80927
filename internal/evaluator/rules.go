package evaluator

import (
	"github.com/oshokin/smart-home/internal/domain/house"
	"github.com/oshokin/smart-home/internal/domain/latch"
)

// rule is one stage of the evaluation pipeline.
// Each rule sees the working state produced by the rules before it.
type rule struct {
	name  string
	apply func(s house.State, p *pass) house.State
}

// pipeline is the ordered rule chain. The order is part of the contract:
// later rules deliberately override earlier ones.
//
//nolint:gochecknoglobals // Immutable rule table.
var pipeline = []rule{
	{"light", lightPolicy},
	{"door-alarm", doorAlarmConsistency},
	{"away-timer", awayTimerOverride},
	{"arrival", arrivalConvenience},
	{"alarm-arm", alarmArmDisarm},
	{"alarm-recheck", alarmRecheck},
	{"heating", heating},
	{"cooling", cooling},
	{"hvac-mode", hvacMode},
	{"hvac-exclusion", hvacExclusion},
	{"humidifier", humidifierRestriction},
	{"night-lock", nightLock},
	{"electronic-lock", electronicLock},
	{"keyless-entry", keylessEntry},
	{"intruder-lockdown", intruderLockdown},
	{"panel-message", panelMessage},
}

// lightPolicy refuses to light an empty house.
func lightPolicy(s house.State, p *pass) house.State {
	light, ok := s.Light.Get()
	if !ok {
		return s
	}

	switch {
	case light && !house.On(s.Proximity):
		p.log.Add("Cannot turn on light because user not home")
		s.Light = house.Some(false)
	case light:
		p.log.Add("Light on")
	default:
		p.log.Add("Light off")
	}

	return s
}

// doorAlarmConsistency raises the alarm on break-ins and closes the door of a vacant, disarmed house.
func doorAlarmConsistency(s house.State, p *pass) house.State {
	open, ok := s.Door.Get()
	if !ok {
		return s
	}

	var (
		occupied = house.On(s.Proximity)
		armed    = house.On(s.AlarmArmed)
	)

	if open {
		switch {
		case !occupied && armed:
			p.log.Add("Break in detected: Activating alarm")
			s.AlarmActive = house.Some(true)
		case !occupied:
			p.log.Add("Closed door because house vacant")
			s.Door = house.Some(false)
		default:
			p.log.Add("Door open")
		}

		return s
	}

	if armed && occupied {
		p.log.Add("Break in detected: Activating alarm")
		s.AlarmActive = house.Some(true)
	} else {
		p.log.Add("Closed door")
	}

	return s
}

// awayTimerOverride secures the house once it has been vacant long enough.
func awayTimerOverride(s house.State, p *pass) house.State {
	if !house.On(s.AwayTimer) {
		return s
	}

	p.log.Add("Away timer expired, securing the house")

	s.Light = house.Some(false)
	s.Door = house.Some(false)
	s.AlarmArmed = house.Some(true)
	s.AwayTimer = house.Some(false)

	return s
}

// arrivalConvenience lights the house for an occupant when the alarm is off.
func arrivalConvenience(s house.State, p *pass) house.State {
	if !house.On(s.Proximity) {
		return s
	}

	p.log.Add("House is occupied")

	if !house.On(s.Light) && !house.On(s.AlarmArmed) {
		s.Light = house.Some(true)
		p.log.Add("Turning on light")
	}

	return s
}

// alarmArmDisarm handles arm requests and passcode-gated disarm attempts.
func alarmArmDisarm(s house.State, p *pass) house.State {
	armed, ok := s.AlarmArmed.Get()
	if !ok {
		if house.On(s.AlarmActive) {
			p.log.Add("Alarm is not enabled, silencing it")
			s.AlarmActive = house.Some(false)
		}

		return s
	}

	if armed {
		p.log.Add("Alarm enabled")
		return s
	}

	switch {
	case !house.On(s.Proximity):
		p.log.Add("Cannot disable the alarm, house is empty")
		s.AlarmArmed = house.Some(true)
	case house.On(s.AlarmActive):
		given := s.GivenPasscode.Or("")
		if latch.Match(s.AlarmPasscode.Or(""), given) {
			p.log.Add("Correct passcode entered, disabled alarm")
			s.AlarmActive = house.Some(false)
		} else {
			p.log.Add("Cannot disable alarm, invalid passcode given")
			s.AlarmArmed = house.Some(true)
		}

		// The candidate is consumed by the attempt.
		if s.GivenPasscode.IsSet() {
			s.GivenPasscode = house.Some("")
		}
	}

	if house.Off(s.AlarmArmed) {
		p.log.Add("Alarm disabled")
		s.AlarmActive = house.Some(false)
	}

	return s
}

// alarmRecheck re-derives whether the siren sounds from the current door and occupancy.
func alarmRecheck(s house.State, p *pass) house.State {
	armed, armedOK := s.AlarmArmed.Get()
	open, doorOK := s.Door.Get()
	occupied, proximityOK := s.Proximity.Get()

	if !armedOK || !doorOK || !proximityOK {
		p.log.Add("Warning: Not enough information to evaluate alarm")
		return s
	}

	if armed && ((!open && occupied) || (open && !occupied)) {
		p.log.Add("Activating alarm")
		s.AlarmActive = house.Some(true)
	}

	return s
}

// heating turns the heater on strictly below the target temperature.
func heating(s house.State, p *pass) house.State {
	reading, target, ok := climate(s)
	if !ok {
		p.log.Add("Warning: Not enough information to evaluate heating")
		return s
	}

	if reading < target {
		p.log.Addf("Turning on heater, target temperature = %dF, current temperature = %dF", target, reading)
		s.Heater = house.Some(true)
	} else {
		s.Heater = house.Some(false)
	}

	return s
}

// cooling turns the chiller on strictly above the target temperature.
func cooling(s house.State, p *pass) house.State {
	reading, target, ok := climate(s)
	if !ok {
		p.log.Add("Warning: Not enough information to evaluate cooling")
		return s
	}

	if reading > target {
		if !house.On(s.Chiller) {
			p.log.Addf("Turning on air conditioner target temperature = %dF, current temperature = %dF", target, reading)
		}

		s.Chiller = house.Some(true)
	} else {
		s.Chiller = house.Some(false)
	}

	return s
}

// hvacMode follows whichever climate device is running, chiller first.
func hvacMode(s house.State, _ *pass) house.State {
	switch {
	case house.On(s.Chiller):
		s.HVACMode = house.Some(house.ModeChiller)
	case house.On(s.Heater):
		s.HVACMode = house.Some(house.ModeHeater)
	}

	return s
}

// hvacExclusion never lets heater and chiller run together.
func hvacExclusion(s house.State, p *pass) house.State {
	switch {
	case s.HVACMode.Is(house.ModeHeater):
		if house.On(s.Chiller) {
			p.log.Add("Turning off air conditioner")
		}

		s.Chiller = house.Some(false)
		s.Humidifier = house.Some(false)
	case s.HVACMode.Is(house.ModeChiller):
		if house.On(s.Heater) {
			p.log.Add("Turning off heater")
		}

		s.Heater = house.Some(false)
	}

	return s
}

// humidifierRestriction is the final authority on the dehumidifier: chiller mode only.
func humidifierRestriction(s house.State, p *pass) house.State {
	if !s.Humidifier.IsSet() {
		return s
	}

	if house.On(s.Humidifier) && s.HVACMode.Is(house.ModeChiller) {
		p.log.Add("Enabled Dehumidifier")
		return s
	}

	if house.On(s.Humidifier) {
		p.log.Add("Automatically disabled dehumidifier when running heater")
	}

	s.Humidifier = house.Some(false)

	return s
}

// nightLock engages the lock of a closed door inside the night window.
func nightLock(s house.State, p *pass) house.State {
	start, startOK := s.NightStart.Get()
	end, endOK := s.NightEnd.Get()

	if startOK && endOK {
		p.log.Addf("Night mode start time: %d Night mode end time: %d", start, end)
	}

	p.log.Addf("Current time: %d", p.now)

	if !house.On(s.NightLock) {
		p.log.Add("Night Lock is disabled")
		return s
	}

	if !startOK || !endOK {
		p.log.Add("Warning: Night lock window is not configured")
		return s
	}

	if InNightWindow(start, end, p.now) && !house.On(s.Lock) && house.Off(s.Door) {
		s.Lock = house.Some(true)
		p.log.Add("Door locked during night time")
	}

	return s
}

// electronicLock executes a pending passcode-gated LOCK or UNLOCK request.
// The request and its candidate passcode are consumed whatever the outcome.
func electronicLock(s house.State, p *pass) house.State {
	request := s.LockRequest.Or(house.RequestNone)

	if !house.On(s.ElectronicOperation) {
		p.log.Add("Electronic operation of lock is disabled")
		return consumeLockRequest(s, request)
	}

	var (
		locked = house.On(s.Lock)
		valid  = latch.Match(s.LockPasscode.Or(""), s.GivenLockPasscode.Or(""))
	)

	switch request {
	case house.RequestLock:
		switch {
		case locked:
			p.log.Add("Door already locked")
		case valid:
			s.Lock = house.Some(true)
			p.log.Add("Door locked")
		default:
			p.log.Add("Invalid passcode given to lock door")
		}
	case house.RequestUnlock:
		switch {
		case !locked:
			p.log.Add("Door already unlocked")
		case valid:
			s.Lock = house.Some(false)
			p.log.Add("Door unlocked")

			if house.On(s.Proximity) {
				s.Door = house.Some(true)
				p.log.Add("Door opened")
			}
		default:
			p.log.Add("Invalid passcode given to unlock door")
		}
	case house.RequestNone:
	}

	return consumeLockRequest(s, request)
}

func consumeLockRequest(s house.State, request house.LockRequest) house.State {
	if request == house.RequestNone {
		return s
	}

	s.LockRequest = house.Some(house.RequestNone)

	if s.GivenLockPasscode.IsSet() {
		s.GivenLockPasscode = house.Some("")
	}

	return s
}

// keylessEntry unlocks for an arriving occupant when keyless entry is enabled.
func keylessEntry(s house.State, p *pass) house.State {
	if !house.On(s.ArrivingProximity) {
		return s
	}

	if house.On(s.KeylessEntry) {
		p.log.Add("Arriving home, automatically unlocking door")
		s.Lock = house.Some(false)
	} else {
		p.log.Add("Arriving home, keyless entry disabled")
	}

	s.ArrivingProximity = house.Some(false)

	return s
}

// intruderLockdown closes and locks the door on a detected intrusion, overriding every
// lock decision taken earlier in the pass.
func intruderLockdown(s house.State, p *pass) house.State {
	if !house.On(s.IntruderSensorMode) {
		return s
	}

	if !house.On(s.IntruderDetected) {
		s.PanelMessage = house.Some(false)
		return s
	}

	p.log.Add("Intruder detected, attempting to lock door")

	s.PanelMessage = house.Some(true)
	s.Door = house.Some(false)
	p.log.Add("Door closed")
	s.Lock = house.Some(true)
	p.log.Add("Door locked")

	return s
}

// panelMessage reports the banner shown on the house panel.
func panelMessage(s house.State, p *pass) house.State {
	if house.On(s.PanelMessage) {
		p.log.Add("Panel Message: Possible intruder detected! Please check the house!")
	} else {
		p.log.Add("Panel Message: All clear")
	}

	return s
}

func climate(s house.State) (reading, target int, ok bool) {
	reading, readingOK := s.Temperature.Get()
	target, targetOK := s.TargetTemperature.Get()

	return reading, target, readingOK && targetOK
}
