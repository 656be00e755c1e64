package robot

import (
	"fmt"
	"strings"
)

// Motion commands understood by the robot firmware.
const (
	MoveForward  = "MOVE_FORWARD"
	MoveBackward = "MOVE_BACKWARD"
	TurnLeft     = "TURN_LEFT"
	TurnRight    = "TURN_RIGHT"
	Stop         = "STOP"
)

// ValidCommands lists every motion command.
var ValidCommands = []string{MoveForward, MoveBackward, TurnLeft, TurnRight, Stop}

// KeyBindings maps teleoperation keys to commands. The sensor faces the
// robot's rear, so "s" drives towards what the sensor sees.
var KeyBindings = map[string]string{
	"s": MoveForward,
	"w": MoveBackward,
	"d": TurnLeft,
	"a": TurnRight,
	"c": Stop,
}

// IsValidCommand reports whether cmd is a known motion command.
func IsValidCommand(cmd string) bool {
	for _, c := range ValidCommands {
		if cmd == c {
			return true
		}
	}
	return false
}

// CommandForKey resolves a key binding. Case is ignored.
func CommandForKey(key string) (string, bool) {
	cmd, ok := KeyBindings[strings.ToLower(strings.TrimSpace(key))]
	return cmd, ok
}

// ParseCommand accepts either a command name or a key binding.
func ParseCommand(s string) (string, error) {
	s = strings.TrimSpace(s)
	if cmd, ok := CommandForKey(s); ok {
		return cmd, nil
	}
	if up := strings.ToUpper(s); IsValidCommand(up) {
		return up, nil
	}
	return "", fmt.Errorf("unknown command %q: expected one of %s or keys s/w/d/a/c", s, strings.Join(ValidCommands, ", "))
}
