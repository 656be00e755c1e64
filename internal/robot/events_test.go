package robot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent(`{"event":"distance","value":512.5}`)
	require.NoError(t, err)
	assert.Equal(t, EventDistance, e.Event)
	require.NotNil(t, e.Value)
	assert.Equal(t, 512.5, *e.Value)

	e, err = ParseEvent(` {"event":"update_matrix","distance":740} `)
	require.NoError(t, err)
	require.NotNil(t, e.Distance)
	assert.Equal(t, 740.0, *e.Distance)

	e, err = ParseEvent(`{"event":"collision"}`)
	require.NoError(t, err)
	assert.Equal(t, EventCollision, e.Event)

	// Unknown events decode without error so callers can ignore them.
	e, err = ParseEvent(`{"event":"battery"}`)
	require.NoError(t, err)
	assert.Equal(t, "battery", e.Event)
}

func TestParseEventErrors(t *testing.T) {
	for _, payload := range []string{
		"",
		"hello",
		`{"event":`,
		`{"value":1}`,
		`{"event":"distance"}`,
		`{"event":"update_matrix","value":3}`,
	} {
		_, err := ParseEvent(payload)
		assert.Error(t, err, "payload %q", payload)
	}
}

func TestParseCommand(t *testing.T) {
	tests := map[string]string{
		"s":             MoveForward,
		"W":             MoveBackward,
		"d":             TurnLeft,
		"a":             TurnRight,
		" c ":           Stop,
		"move_forward":  MoveForward,
		"TURN_RIGHT":    TurnRight,
		"stop":          Stop,
		"MOVE_BACKWARD": MoveBackward,
	}
	for in, want := range tests {
		got, err := ParseCommand(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCommand("jump")
	assert.Error(t, err)
}
