package mqtt

import (
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/smart-home/internal/audit"
	"github.com/oshokin/smart-home/internal/domain/house"
)

// Event is the published payload of one evaluation.
type Event struct {
	ID        string         `json:"id"`
	House     string         `json:"house"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
	Log       []string       `json:"log"`
}

// NewEvent builds the payload of an evaluation. Passcodes are never published.
func NewEvent(name string, state house.State, log *audit.Log, at time.Time) Event {
	var lines []string
	if log != nil {
		lines = log.Lines()
	}

	return Event{
		ID:        uuid.NewString(),
		House:     name,
		Timestamp: at.UTC(),
		State:     state.WithoutSecrets().Map(),
		Log:       lines,
	}
}

// Topic returns the state topic of a house.
func Topic(root, name string) string {
	return root + "/" + name + "/state"
}
