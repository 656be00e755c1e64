package monitor

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/gridmap/internal/mapper"
	"github.com/banshee-data/gridmap/internal/monitoring"
	"github.com/banshee-data/gridmap/internal/robot"
)

const viewerWriteTimeout = 5 * time.Second

// handleViewer streams mapper updates to a browser. The current history is
// sent first so a late viewer starts from the same table.
func (ws *WebServer) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("[monitor] viewer upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, updates := ws.mapper.Subscribe()
	defer ws.mapper.Unsubscribe(id)

	initial := mapper.Update{Event: robot.EventUpdateMatrixFrontend, Value: ws.mapper.Snapshot().Table}
	conn.SetWriteDeadline(time.Now().Add(viewerWriteTimeout))
	if err := conn.WriteJSON(initial); err != nil {
		return
	}

	// Viewers never send anything meaningful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(viewerWriteTimeout))
			if err := conn.WriteJSON(u); err != nil {
				return
			}
		}
	}
}
