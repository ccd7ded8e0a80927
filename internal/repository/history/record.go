package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/smart-home/internal/domain/house"
)

// Repository persists history records.
type Repository interface {
	Save(ctx context.Context, record *Record) error
	// Latest returns the most recent record of every house, keyed by house name.
	Latest(ctx context.Context) (map[string]*Record, error)
	Close(ctx context.Context) error
}

// ErrNotFound is returned when no record exists for a house.
var ErrNotFound = errors.New("history record not found")

// Record is a snapshot of one house at one moment.
type Record struct {
	// ID uniquely identifies the record.
	ID string
	// House is the house name.
	House string
	// Timestamp is when the snapshot was taken.
	Timestamp time.Time
	// GroupExperiment is the report group of the house.
	GroupExperiment string
	// LightsOn is the accumulated time the light was observed on.
	LightsOn time.Duration
	// State is the evaluated house state.
	State house.State
}

// NewRecord creates a record with a fresh ID. Passcodes are not recorded.
func NewRecord(name, group string, lightsOn time.Duration, state house.State, at time.Time) *Record {
	return &Record{
		ID:              uuid.NewString(),
		House:           name,
		Timestamp:       at.UTC(),
		GroupExperiment: group,
		LightsOn:        lightsOn,
		State:           state.WithoutSecrets(),
	}
}

// Keys of the encoded record.
const (
	keyID       = "id"
	keyHouse    = "house"
	keyTime     = "timestamp"
	keyGroup    = "group_experiment"
	keyLightsOn = "lights_on_seconds"
	keyState    = "state"
)

var errBadRecord = errors.New("malformed history record")

// toStruct encodes r as a protobuf Struct.
func toStruct(r *Record) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		keyID:       r.ID,
		keyHouse:    r.House,
		keyTime:     r.Timestamp.Format(time.RFC3339Nano),
		keyGroup:    r.GroupExperiment,
		keyLightsOn: r.LightsOn.Seconds(),
		keyState:    r.State.Map(),
	})
}

// fromStruct decodes a record produced by toStruct.
func fromStruct(s *structpb.Struct) (*Record, error) {
	fields := s.GetFields()

	ts, err := time.Parse(time.RFC3339Nano, fields[keyTime].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %w", errBadRecord, err)
	}

	state, err := house.Decode(fields[keyState].GetStructValue().AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: state: %w", errBadRecord, err)
	}

	r := &Record{
		ID:              fields[keyID].GetStringValue(),
		House:           fields[keyHouse].GetStringValue(),
		Timestamp:       ts,
		GroupExperiment: fields[keyGroup].GetStringValue(),
		LightsOn:        time.Duration(fields[keyLightsOn].GetNumberValue() * float64(time.Second)),
		State:           state,
	}

	if r.House == "" {
		return nil, fmt.Errorf("%w: missing house", errBadRecord)
	}

	return r, nil
}

// keepLatest stores r in latest unless a newer record of the same house is already there.
func keepLatest(latest map[string]*Record, r *Record) {
	if prev, ok := latest[r.House]; ok && prev.Timestamp.After(r.Timestamp) {
		return
	}

	latest[r.House] = r
}
