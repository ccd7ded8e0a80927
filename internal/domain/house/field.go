package house

import "fmt"

// Field identifies one entry of the house state.
type Field int

// Kind is the value type carried by a field.
type Kind int

const (
	// KindBool fields carry on/off style readings.
	KindBool Kind = iota + 1
	// KindInt fields carry temperatures, percentages and HHMM times.
	KindInt
	// KindString fields carry passcodes and short enums.
	KindString
)

// Fields of the house state. Codes are stable and shared with the hub protocol,
// the history recorder and the API.
const (
	TemperatureReading Field = iota + 1
	HumidityReading
	TargetTemperature
	HumidifierState
	HeaterState
	ChillerState
	HVACModeSetting
	DoorState
	LightState
	ProximityState
	ArrivingProximityState
	AwayTimer
	AlarmState
	AlarmActive
	AlarmDelay
	AlarmPasscode
	GivenPasscode
	LockState
	LockRequestCommand
	LockElectronicOperation
	LockKeylessEntry
	LockPasscode
	LockGivenPasscode
	NightLockEnabled
	NightStartTime
	NightEndTime
	CurrentTime
	IntruderSensorMode
	IntruderDetected
	PanelMessage

	fieldCount = int(PanelMessage)
)

// fieldInfo describes the wire code and value kind of a field.
type fieldInfo struct {
	code string
	kind Kind
}

//nolint:gochecknoglobals // Static lookup table for the closed field set.
var fieldTable = [...]fieldInfo{
	TemperatureReading:      {"TR", KindInt},
	HumidityReading:         {"HR", KindInt},
	TargetTemperature:       {"TT", KindInt},
	HumidifierState:         {"HUS", KindBool},
	HeaterState:             {"HES", KindBool},
	ChillerState:            {"CHS", KindBool},
	HVACModeSetting:         {"HM", KindString},
	DoorState:               {"DS", KindBool},
	LightState:              {"LS", KindBool},
	ProximityState:          {"PS", KindBool},
	ArrivingProximityState:  {"APS", KindBool},
	AwayTimer:               {"AW", KindBool},
	AlarmState:              {"AS", KindBool},
	AlarmActive:             {"AA", KindBool},
	AlarmDelay:              {"ALARM_DELAY", KindInt},
	AlarmPasscode:           {"ALARM_PASSCODE", KindString},
	GivenPasscode:           {"GIVEN_PASSCODE", KindString},
	LockState:               {"LKS", KindBool},
	LockRequestCommand:      {"LOCK_REQUEST", KindString},
	LockElectronicOperation: {"EOE", KindBool},
	LockKeylessEntry:        {"KLE", KindBool},
	LockPasscode:            {"LOCK_PASSCODE", KindString},
	LockGivenPasscode:       {"LOCK_GIVEN_PASSCODE", KindString},
	NightLockEnabled:        {"NLE", KindBool},
	NightStartTime:          {"NST", KindInt},
	NightEndTime:            {"NET", KindInt},
	CurrentTime:             {"CT", KindInt},
	IntruderSensorMode:      {"LIS", KindBool},
	IntruderDetected:        {"IDS", KindBool},
	PanelMessage:            {"PM", KindBool},
}

//nolint:gochecknoglobals // Reverse index of fieldTable, built once.
var fieldsByCode = func() map[string]Field {
	index := make(map[string]Field, fieldCount)
	for _, f := range AllFields() {
		index[f.Code()] = f
	}

	return index
}()

// AllFields returns every field in declaration order.
func AllFields() []Field {
	fields := make([]Field, 0, fieldCount)
	for f := TemperatureReading; f <= PanelMessage; f++ {
		fields = append(fields, f)
	}

	return fields
}

// ParseField maps a wire code back to its field.
func ParseField(code string) (Field, bool) {
	f, ok := fieldsByCode[code]

	return f, ok
}

// Valid reports whether f belongs to the closed field set.
func (f Field) Valid() bool {
	return f >= TemperatureReading && f <= PanelMessage
}

// Code returns the stable wire code of the field.
func (f Field) Code() string {
	if !f.Valid() {
		return ""
	}

	return fieldTable[f].code
}

// Kind returns the value kind of the field.
func (f Field) Kind() Kind {
	if !f.Valid() {
		return 0
	}

	return fieldTable[f].kind
}

// String implements fmt.Stringer.
func (f Field) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}

	return f.Code()
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}
