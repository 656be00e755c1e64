package robot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event names sent by the robot.
const (
	EventDistance     = "distance"
	EventUpdateMatrix = "update_matrix"
	EventCollision    = "collision"
)

// Event names sent to viewers.
const (
	EventDistanceFrontend     = "distance_frontend"
	EventUpdateMatrixFrontend = "update_matrix_frontend"
	EventCommand              = "command"
)

// Event is one message from the robot. Distances are millimetres.
//
//	{"event": "distance", "value": 512}
//	{"event": "update_matrix", "distance": 740}
type Event struct {
	Event    string   `json:"event"`
	Value    *float64 `json:"value,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

// CommandMessage is the envelope used to push a command over a websocket.
type CommandMessage struct {
	Event   string `json:"event"`
	Command string `json:"command"`
}

// ParseEvent decodes a JSON payload from the robot and checks that the
// fields required by its event type are present.
func ParseEvent(payload string) (Event, error) {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, "{") {
		return Event{}, fmt.Errorf("unsupported payload %q: expected JSON object", payload)
	}
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	switch e.Event {
	case EventDistance:
		if e.Value == nil {
			return e, fmt.Errorf("distance event without value")
		}
	case EventUpdateMatrix:
		if e.Distance == nil {
			return e, fmt.Errorf("update_matrix event without distance")
		}
	case EventCollision:
	case "":
		return e, fmt.Errorf("event name missing")
	}
	return e, nil
}
