package house

// HVACMode selects which climate device the controller drives.
type HVACMode string

const (
	// ModeHeater drives the heater.
	ModeHeater HVACMode = "Heater"
	// ModeChiller drives the chiller (air conditioner).
	ModeChiller HVACMode = "Chiller"
)

// Valid reports whether m is a known mode.
func (m HVACMode) Valid() bool {
	return m == ModeHeater || m == ModeChiller
}

// LockRequest is a pending electronic lock command.
type LockRequest string

const (
	// RequestNone means no lock command is pending.
	RequestNone LockRequest = ""
	// RequestLock asks the smart lock to lock.
	RequestLock LockRequest = "LOCK"
	// RequestUnlock asks the smart lock to unlock.
	RequestUnlock LockRequest = "UNLOCK"
)

// Valid reports whether r is a known lock request.
func (r LockRequest) Valid() bool {
	return r == RequestNone || r == RequestLock || r == RequestUnlock
}

// State is the full set of readings and settings of one house.
// Every field is optional: a field that was not provided is not the same as false or zero.
type State struct {
	// Climate.
	Temperature       Optional[int]
	Humidity          Optional[int]
	TargetTemperature Optional[int]
	Humidifier        Optional[bool]
	Heater            Optional[bool]
	Chiller           Optional[bool]
	HVACMode          Optional[HVACMode]

	// Occupancy and entry.
	Proximity         Optional[bool]
	ArrivingProximity Optional[bool]
	AwayTimer         Optional[bool]

	// Door and primary lock. Door is true when open, Lock is true when locked.
	Door                Optional[bool]
	Lock                Optional[bool]
	LockRequest         Optional[LockRequest]
	LockPasscode        Optional[string]
	GivenLockPasscode   Optional[string]
	ElectronicOperation Optional[bool]
	KeylessEntry        Optional[bool]
	NightLock           Optional[bool]
	NightStart          Optional[int]
	NightEnd            Optional[int]
	CurrentTime         Optional[int]

	// Alarm. AlarmArmed is the enabled setting, AlarmActive means the siren is sounding.
	AlarmArmed    Optional[bool]
	AlarmActive   Optional[bool]
	AlarmPasscode Optional[string]
	GivenPasscode Optional[string]
	AlarmDelay    Optional[int]

	// Intrusion.
	IntruderSensorMode Optional[bool]
	IntruderDetected   Optional[bool]
	PanelMessage       Optional[bool]

	Light Optional[bool]
}

// boolField returns the storage of a boolean field, or nil for other kinds.
//
//nolint:cyclop // Flat mapping over the closed field set.
func (s *State) boolField(f Field) *Optional[bool] {
	switch f {
	case HumidifierState:
		return &s.Humidifier
	case HeaterState:
		return &s.Heater
	case ChillerState:
		return &s.Chiller
	case DoorState:
		return &s.Door
	case LightState:
		return &s.Light
	case ProximityState:
		return &s.Proximity
	case ArrivingProximityState:
		return &s.ArrivingProximity
	case AwayTimer:
		return &s.AwayTimer
	case AlarmState:
		return &s.AlarmArmed
	case AlarmActive:
		return &s.AlarmActive
	case LockState:
		return &s.Lock
	case LockElectronicOperation:
		return &s.ElectronicOperation
	case LockKeylessEntry:
		return &s.KeylessEntry
	case NightLockEnabled:
		return &s.NightLock
	case IntruderSensorMode:
		return &s.IntruderSensorMode
	case IntruderDetected:
		return &s.IntruderDetected
	case PanelMessage:
		return &s.PanelMessage
	default:
		return nil
	}
}

// intField returns the storage of an integer field, or nil for other kinds.
func (s *State) intField(f Field) *Optional[int] {
	switch f {
	case TemperatureReading:
		return &s.Temperature
	case HumidityReading:
		return &s.Humidity
	case TargetTemperature:
		return &s.TargetTemperature
	case AlarmDelay:
		return &s.AlarmDelay
	case NightStartTime:
		return &s.NightStart
	case NightEndTime:
		return &s.NightEnd
	case CurrentTime:
		return &s.CurrentTime
	default:
		return nil
	}
}

// stringField returns the storage of a plain string field, or nil.
// HVAC mode and lock request are enums and handled separately.
func (s *State) stringField(f Field) *Optional[string] {
	switch f {
	case AlarmPasscode:
		return &s.AlarmPasscode
	case GivenPasscode:
		return &s.GivenPasscode
	case LockPasscode:
		return &s.LockPasscode
	case LockGivenPasscode:
		return &s.GivenLockPasscode
	default:
		return nil
	}
}

// Has reports whether the field was provided.
func (s State) Has(f Field) bool {
	_, ok := s.Value(f)

	return ok
}

// Value returns the provided value of f as bool, int or string.
func (s State) Value(f Field) (any, bool) {
	if p := s.boolField(f); p != nil {
		v, ok := p.Get()
		return v, ok
	}

	if p := s.intField(f); p != nil {
		v, ok := p.Get()
		return v, ok
	}

	if p := s.stringField(f); p != nil {
		v, ok := p.Get()
		return v, ok
	}

	switch f {
	case HVACModeSetting:
		v, ok := s.HVACMode.Get()
		return string(v), ok
	case LockRequestCommand:
		v, ok := s.LockRequest.Get()
		return string(v), ok
	default:
		return nil, false
	}
}

// Fields returns the provided fields in declaration order.
func (s State) Fields() []Field {
	fields := make([]Field, 0, fieldCount)

	for _, f := range AllFields() {
		if s.Has(f) {
			fields = append(fields, f)
		}
	}

	return fields
}

// Merge returns base with every field provided by overlay replacing the base value.
func Merge(base, overlay State) State {
	merged := base

	for _, f := range overlay.Fields() {
		v, _ := overlay.Value(f)
		// Values coming from a State are always well typed.
		_ = merged.set(f, v)
	}

	return merged
}

// WithoutSecrets returns s with every passcode field cleared.
func (s State) WithoutSecrets() State {
	s.AlarmPasscode = None[string]()
	s.GivenPasscode = None[string]()
	s.LockPasscode = None[string]()
	s.GivenLockPasscode = None[string]()

	return s
}
