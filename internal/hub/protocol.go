package hub

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oshokin/smart-home/internal/domain/house"
)

// Protocol tokens.
const (
	GetState    = "GS"
	SetState    = "SS"
	StateUpdate = "SU"
	OK          = "OK"

	ParamDelim = ";"
	MsgDelim   = ":"
	ParamEq    = "="
	MsgEnd     = "."

	wireTrue    = "1"
	wireFalse   = "0"
	wireHeater  = "1"
	wireChiller = "0"
)

var (
	// ErrMalformed is returned for a message that does not follow the framing rules.
	ErrMalformed = errors.New("malformed hub message")
	// ErrUnexpectedResponse is returned when the hub answers with the wrong message type.
	ErrUnexpectedResponse = errors.New("unexpected hub response")
)

// hardwareFields are the fields the hub reports and accepts.
// Passcodes, requests and settings never leave the controller.
//
//nolint:gochecknoglobals // Closed set.
var hardwareFields = []house.Field{
	house.TemperatureReading,
	house.HumidityReading,
	house.DoorState,
	house.LightState,
	house.ProximityState,
	house.AlarmState,
	house.AlarmActive,
	house.HeaterState,
	house.ChillerState,
	house.HVACModeSetting,
	house.HumidifierState,
	house.LockState,
	house.ArrivingProximityState,
	house.LockKeylessEntry,
	house.LockElectronicOperation,
	house.IntruderSensorMode,
	house.IntruderDetected,
	house.PanelMessage,
	house.NightLockEnabled,
}

// sensorFields are read-only: the hub measures them and ignores them in SS.
//
//nolint:gochecknoglobals // Closed set.
var sensorFields = map[house.Field]bool{
	house.TemperatureReading: true,
	house.HumidityReading:    true,
}

// HardwareFields returns the fields exchanged with the hub, in wire order.
func HardwareFields() []house.Field {
	out := make([]house.Field, len(hardwareFields))
	copy(out, hardwareFields)

	return out
}

// IsHardware reports whether f is exchanged with the hub.
func IsHardware(f house.Field) bool {
	for _, h := range hardwareFields {
		if h == f {
			return true
		}
	}

	return false
}

// EncodeGet returns the state request.
func EncodeGet() string {
	return GetState + MsgEnd
}

// EncodeSet returns the SS message carrying every provided actuator field of s.
func EncodeSet(s house.State) string {
	return SetState + MsgDelim + encodeParams(s, false) + MsgEnd
}

// EncodeUpdate returns the SU message carrying every provided hardware field of s.
func EncodeUpdate(s house.State) string {
	return StateUpdate + MsgDelim + encodeParams(s, true) + MsgEnd
}

func encodeParams(s house.State, withSensors bool) string {
	params := make([]string, 0, len(hardwareFields))

	for _, f := range hardwareFields {
		if !withSensors && sensorFields[f] {
			continue
		}

		v, ok := s.Value(f)
		if !ok {
			continue
		}

		params = append(params, f.Code()+ParamEq+encodeValue(f, v))
	}

	return strings.Join(params, ParamDelim)
}

func encodeValue(f house.Field, v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return wireTrue
		}

		return wireFalse
	case int:
		return strconv.Itoa(x)
	case string:
		if f == house.HVACModeSetting {
			if house.HVACMode(x) == house.ModeHeater {
				return wireHeater
			}

			return wireChiller
		}

		return x
	default:
		return fmt.Sprint(x)
	}
}

// Split separates a framed message into its type and body.
// The terminator and surrounding whitespace are dropped.
func Split(msg string) (kind, body string, err error) {
	msg = strings.TrimSpace(msg)
	if !strings.HasSuffix(msg, MsgEnd) {
		return "", "", fmt.Errorf("%w: missing terminator in %q", ErrMalformed, msg)
	}

	msg = strings.TrimSuffix(msg, MsgEnd)

	kind, body, _ = strings.Cut(msg, MsgDelim)
	if kind == "" {
		return "", "", fmt.Errorf("%w: missing message type", ErrMalformed)
	}

	return kind, body, nil
}

// DecodeParams parses a k=v;k=v body. Codes the controller does not know are skipped.
func DecodeParams(body string) (house.State, error) {
	var s house.State

	for _, param := range strings.Split(body, ParamDelim) {
		if param == "" {
			continue
		}

		code, raw, ok := strings.Cut(param, ParamEq)
		if !ok {
			return house.State{}, fmt.Errorf("%w: parameter %q", ErrMalformed, param)
		}

		f, known := house.ParseField(code)
		if !known {
			continue
		}

		v, err := decodeValue(f, raw)
		if err != nil {
			return house.State{}, err
		}

		if err := s.Set(f, v); err != nil {
			return house.State{}, fmt.Errorf("%s: %w", code, err)
		}
	}

	return s, nil
}

func decodeValue(f house.Field, raw string) (any, error) {
	switch f.Kind() {
	case house.KindBool:
		switch raw {
		case wireTrue:
			return true, nil
		case wireFalse:
			return false, nil
		default:
			return nil, fmt.Errorf("%w: %s=%q is not a flag", ErrMalformed, f.Code(), raw)
		}
	case house.KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a number", ErrMalformed, f.Code(), raw)
		}

		return n, nil
	default:
		if f == house.HVACModeSetting {
			if raw == wireHeater {
				return string(house.ModeHeater), nil
			}

			return string(house.ModeChiller), nil
		}

		return raw, nil
	}
}

// DecodeUpdate parses an SU message.
func DecodeUpdate(msg string) (house.State, error) {
	kind, body, err := Split(msg)
	if err != nil {
		return house.State{}, err
	}

	if kind != StateUpdate {
		return house.State{}, fmt.Errorf("%w: want %s, got %s", ErrUnexpectedResponse, StateUpdate, kind)
	}

	return DecodeParams(body)
}

// Hardware returns only the hub fields of s.
func Hardware(s house.State) house.State {
	var out house.State

	for _, f := range hardwareFields {
		if v, ok := s.Value(f); ok {
			// Values read from a State are always well typed.
			_ = out.Set(f, v)
		}
	}

	return out
}
