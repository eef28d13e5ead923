package ws

import (
	"encoding/json"

	"charging-robots/internal/model"
	"charging-robots/internal/sim"
)

// Message types on the viewer socket.
const (
	TypeSimStep     = "sim:step"
	TypeSimSnapshot = "sim:snapshot"
	TypeSimError    = "sim:error"
)

// Envelope wraps every message with its type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals a payload into a wire-ready envelope.
func NewEnvelope(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw})
}

// StepPayload asks the server to advance the simulation.
type StepPayload struct {
	Count int `json:"count"` // events to process, default 1
}

// SnapshotPayload is the full viewer frame.
type SnapshotPayload struct {
	Policy      string          `json:"policy"`
	CurrentTime int             `json:"current_time"`
	Horizon     int             `json:"horizon"`
	Done        bool            `json:"done"`
	Vehicles    []model.Vehicle `json:"vehicles"`
	Robots      []model.Robot   `json:"robots"`
	Batteries   []model.Battery `json:"batteries"`
	Stats       sim.Stats       `json:"stats"`
}

// ErrorPayload reports a failed command.
type ErrorPayload struct {
	Message string `json:"message"`
}
