// Package robot talks to the mobile agent: it carries range events from the
// robot to subscribers and motion commands back to the robot, over either a
// serial line or a websocket.
package robot

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWriteFailed  = fmt.Errorf("failed to write to robot link")
	ErrNotConnected = errors.New("robot not connected")
)

// Commander sends motion commands to the robot.
type Commander interface {
	SendCommand(string) error
}

// Link defines a bidirectional connection to the robot.
type Link interface {
	Commander
	// Subscribe creates a new channel for receiving raw event payloads from
	// the robot. The channel ID is used when unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// Monitor delivers incoming payloads to subscribers until ctx is done
	// or the link fails.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the underlying connection.
	Close() error
	// AttachAdminRoutes mounts debugging endpoints under /debug/.
	AttachAdminRoutes(*http.ServeMux)
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// fanout is the subscriber registry shared by link implementations.
type fanout struct {
	subscribers map[string]chan string
}

func newFanout() fanout {
	return fanout{subscribers: make(map[string]chan string)}
}

func (f *fanout) add() (string, chan string) {
	id := randomID()
	ch := make(chan string, 16)
	f.subscribers[id] = ch
	return id, ch
}

func (f *fanout) remove(id string) {
	if ch, ok := f.subscribers[id]; ok {
		close(ch)
		delete(f.subscribers, id)
	}
}

func (f *fanout) publish(line string) {
	for _, ch := range f.subscribers {
		select {
		case ch <- line:
		default:
			// if the channel is full/blocking skip so as not to block the reader
		}
	}
}

func (f *fanout) closeAll() {
	for id := range f.subscribers {
		f.remove(id)
	}
}
