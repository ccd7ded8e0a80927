package house

import (
	"errors"
	"time"
)

// ErrHouseNotFound is returned for a house name the controller does not manage.
var ErrHouseNotFound = errors.New("house not found")

// Snapshot is the externally visible status of one controlled house.
type Snapshot struct {
	// House is the house name.
	House string
	// Connected reports whether the hub answered the last exchange.
	Connected bool
	// State is the last evaluated state.
	State State
	// Log is the audit trail of the last evaluation, formatted.
	Log []string
	// LightsOn is the accumulated time the light was observed on.
	LightsOn time.Duration
	// GroupExperiment is the report group of the house.
	GroupExperiment string
	// UpdatedAt is when State was last evaluated.
	UpdatedAt time.Time
}
