package house

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrUnknownField is reported for keys outside the closed field set.
	ErrUnknownField = errors.New("unknown field")
	// ErrTypeMismatch is reported when a value does not match the field kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidEnum is reported for HVAC modes and lock requests outside their enums.
	ErrInvalidEnum = errors.New("invalid enum value")
)

// DecodeError lists every entry of a flat map that could not be decoded.
type DecodeError struct {
	// Problems maps the offending key to its reason.
	Problems map[string]error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	keys := make([]string, 0, len(e.Problems))
	for k := range e.Problems {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Problems[k]))
	}

	return "decode house state: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual problems to errors.Is.
func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Problems))
	for _, err := range e.Problems {
		errs = append(errs, err)
	}

	return errs
}

// Decode maps a flat field-code keyed map onto a State.
// Nil values mean "not provided". Unknown keys and mismatched values are all reported in
// a single *DecodeError; the returned State still carries every entry that decoded cleanly.
func Decode(m map[string]any) (State, error) {
	var (
		s        State
		problems map[string]error
	)

	for key, raw := range m {
		f, ok := ParseField(key)
		if !ok {
			problems = addProblem(problems, key, ErrUnknownField)
			continue
		}

		if raw == nil {
			continue
		}

		if err := s.set(f, raw); err != nil {
			problems = addProblem(problems, key, err)
		}
	}

	if problems != nil {
		return s, &DecodeError{Problems: problems}
	}

	return s, nil
}

// Map encodes the provided fields into a flat map keyed by field code.
func (s State) Map() map[string]any {
	fields := s.Fields()
	m := make(map[string]any, len(fields))

	for _, f := range fields {
		v, _ := s.Value(f)
		m[f.Code()] = v
	}

	return m
}

// Set stores v into field f after checking its kind.
func (s *State) Set(f Field, v any) error {
	if !f.Valid() {
		return fmt.Errorf("%s: %w", f, ErrUnknownField)
	}

	return s.set(f, v)
}

// Clear marks field f as not provided.
func (s *State) Clear(f Field) {
	switch {
	case s.boolField(f) != nil:
		*s.boolField(f) = None[bool]()
	case s.intField(f) != nil:
		*s.intField(f) = None[int]()
	case s.stringField(f) != nil:
		*s.stringField(f) = None[string]()
	case f == HVACModeSetting:
		s.HVACMode = None[HVACMode]()
	case f == LockRequestCommand:
		s.LockRequest = None[LockRequest]()
	}
}

func (s *State) set(f Field, raw any) error {
	switch f.Kind() {
	case KindBool:
		v, ok := raw.(bool)
		if !ok {
			return mismatch(f, raw)
		}

		*s.boolField(f) = Some(v)
	case KindInt:
		v, ok := toInt(raw)
		if !ok {
			return mismatch(f, raw)
		}

		*s.intField(f) = Some(v)
	case KindString:
		v, ok := raw.(string)
		if !ok {
			return mismatch(f, raw)
		}

		return s.setString(f, v)
	default:
		return fmt.Errorf("%s: %w", f, ErrUnknownField)
	}

	return nil
}

func (s *State) setString(f Field, v string) error {
	switch f {
	case HVACModeSetting:
		mode := HVACMode(v)
		if !mode.Valid() {
			return fmt.Errorf("%q: %w", v, ErrInvalidEnum)
		}

		s.HVACMode = Some(mode)
	case LockRequestCommand:
		request := LockRequest(v)
		if !request.Valid() {
			return fmt.Errorf("%q: %w", v, ErrInvalidEnum)
		}

		s.LockRequest = Some(request)
	default:
		*s.stringField(f) = Some(v)
	}

	return nil
}

// toInt accepts every integer type and integral floats (JSON and structpb numbers).
func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	default:
		return 0, false
	}
}

func floatToInt(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}

	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}

	return int(v), true
}

func mismatch(f Field, raw any) error {
	return fmt.Errorf("want %s, got %T: %w", f.Kind(), raw, ErrTypeMismatch)
}

func addProblem(problems map[string]error, key string, err error) map[string]error {
	if problems == nil {
		problems = make(map[string]error)
	}

	problems[key] = err

	return problems
}
