package robot

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/gridmap/internal/monitoring"
)

// WebSocketLink is a robot link for firmware that dials in over a websocket.
// Only the most recent connection is kept; a reconnecting robot replaces
// the previous socket.
type WebSocketLink struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   fanout
	closed bool

	writeMu sync.Mutex
}

// NewWebSocketLink creates a link with no robot attached.
func NewWebSocketLink() *WebSocketLink {
	return &WebSocketLink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subs: newFanout(),
	}
}

// Handle upgrades the request and reads robot payloads until the socket
// closes. Mount it at /ws/move.
func (l *WebSocketLink) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("[robot] websocket upgrade failed from %s: %v", r.RemoteAddr, err)
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return
	}
	previous := l.conn
	l.conn = conn
	l.mu.Unlock()
	if previous != nil {
		previous.Close()
	}
	monitoring.Logf("[robot] connected from %s", r.RemoteAddr)

	defer func() {
		l.mu.Lock()
		if l.conn == conn {
			l.conn = nil
		}
		l.mu.Unlock()
		conn.Close()
		monitoring.Logf("[robot] disconnected from %s", r.RemoteAddr)
	}()

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		l.mu.Lock()
		l.subs.publish(string(payload))
		l.mu.Unlock()
	}
}

// Connected reports whether a robot socket is attached.
func (l *WebSocketLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

func (l *WebSocketLink) Subscribe() (string, chan string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.subs.add()
}

func (l *WebSocketLink) Unsubscribe(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs.remove(id)
}

// SendCommand pushes a command envelope to the robot.
func (l *WebSocketLink) SendCommand(command string) error {
	return l.WriteJSON(CommandMessage{Event: EventCommand, Command: command})
}

// WriteJSON sends v to the attached robot as a text frame.
func (l *WebSocketLink) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Monitor blocks until ctx is done. Payloads are delivered by Handle as
// they arrive.
func (l *WebSocketLink) Monitor(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (l *WebSocketLink) Close() error {
	l.mu.Lock()
	l.closed = true
	conn := l.conn
	l.conn = nil
	l.subs.closeAll()
	l.mu.Unlock()

	if conn != nil {
		l.writeMu.Lock()
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		l.writeMu.Unlock()
		return conn.Close()
	}
	return nil
}

func (l *WebSocketLink) AttachAdminRoutes(mux *http.ServeMux) {
	attachAdminRoutes(mux, l)
}
