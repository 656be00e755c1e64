// Package monitor serves the mapping session over HTTP: a JSON API, a
// websocket stream for viewers and rendered charts of the current map.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/banshee-data/gridmap/internal/db"
	"github.com/banshee-data/gridmap/internal/httputil"
	"github.com/banshee-data/gridmap/internal/mapper"
	"github.com/banshee-data/gridmap/internal/monitoring"
	"github.com/banshee-data/gridmap/internal/robot"
	"github.com/banshee-data/gridmap/internal/version"
)

// WebServer exposes one mapper over HTTP.
type WebServer struct {
	address   string
	mapper    *mapper.Mapper
	link      robot.Link
	robotWS   http.Handler
	db        *db.DB
	server    *http.Server
	upgrader  websocket.Upgrader
	startedAt time.Time
}

// WebServerConfig contains configuration options for the web server.
// Link, RobotHandler and DB are optional.
type WebServerConfig struct {
	Address string
	Mapper  *mapper.Mapper
	Link    robot.Link
	// RobotHandler accepts the robot's websocket at /ws/move.
	RobotHandler http.Handler
	DB           *db.DB
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		mapper:  config.Mapper,
		link:    config.Link,
		robotWS: config.RobotHandler,
		db:      config.DB,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		startedAt: time.Now(),
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}

	return ws
}

// Handler returns the route multiplexer.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start serves until ctx is cancelled, then shuts the server down.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("[monitor] starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	monitoring.Logf("[monitor] shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[monitor] HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("[monitor] HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("[monitor] HTTP server routine stopped")
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/session", ws.handleSession)
	mux.HandleFunc("/api/probability", ws.handleProbability)
	mux.HandleFunc("/api/table", ws.handleTable)
	mux.HandleFunc("/api/reset", ws.handleReset)
	mux.HandleFunc("/api/observe", ws.handleObserve)
	mux.HandleFunc("/api/command", ws.handleCommand)
	mux.HandleFunc("/api/sessions", ws.handleSessions)
	mux.HandleFunc("/ws/view", ws.handleViewer)
	mux.HandleFunc("/charts/probability", ws.handleProbabilityChart)
	mux.HandleFunc("/charts/probability.png", ws.handleProbabilityPNG)

	if ws.robotWS != nil {
		mux.Handle("/ws/move", ws.robotWS)
	}
	if ws.link != nil {
		ws.link.AttachAdminRoutes(mux)
	}
	if ws.db != nil {
		ws.db.AttachAdminRoutes(mux)
	}
	return mux
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	io.WriteString(w, "Occupancy grid server is running!\n")
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":         "ok",
		"version":        version.Version,
		"uptime_seconds": int(time.Since(ws.startedAt).Seconds()),
	}
	if ws.db != nil {
		v, dirty, err := ws.db.MigrateVersion()
		if err != nil {
			monitoring.Logf("[monitor] failed to read schema version: %v", err)
			health["status"] = "degraded"
		} else {
			health["schema_version"] = v
			health["schema_dirty"] = dirty
		}
	}
	httputil.WriteJSONOK(w, health)
}

func (ws *WebServer) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, ws.mapper.Snapshot())
}

func (ws *WebServer) handleProbability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	snap := ws.mapper.Snapshot()
	rows := make([][]float64, snap.GridSize)
	for i := range rows {
		rows[i] = snap.Probability[i*snap.GridSize : (i+1)*snap.GridSize]
	}
	httputil.WriteJSONOK(w, map[string]any{
		"session_id": snap.SessionID,
		"grid_size":  snap.GridSize,
		"latest":     snap.Latest,
		"rows":       rows,
	})
}

func (ws *WebServer) handleTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := ws.mapper.ExportTable(w); err != nil {
		monitoring.Logf("[monitor] failed to write table: %v", err)
	}
}

func (ws *WebServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	id, err := ws.mapper.Reset()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"session_id": id})
}

type observeRequest struct {
	DistanceMM *float64 `json:"distance_mm"`
}

// handleObserve applies a reading without a robot attached.
func (ws *WebServer) handleObserve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req observeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DistanceMM == nil {
		httputil.BadRequest(w, "expected {\"distance_mm\": <number>}")
		return
	}
	if _, err := ws.mapper.Observe(*req.DistanceMM); err != nil {
		if errors.Is(err, mapper.ErrPlanComplete) {
			httputil.Conflict(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, ws.mapper.Snapshot())
}

type commandRequest struct {
	Command string `json:"command"`
}

func (ws *WebServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.link == nil {
		httputil.ServiceUnavailable(w, robot.ErrNotConnected.Error())
		return
	}

	var raw string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req commandRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid JSON body")
			return
		}
		raw = req.Command
	} else {
		raw = r.FormValue("command")
	}

	cmd, err := robot.ParseCommand(raw)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := ws.link.SendCommand(cmd); err != nil {
		if errors.Is(err, robot.ErrNotConnected) {
			httputil.ServiceUnavailable(w, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	monitoring.Debugf("[monitor] sent %s", cmd)
	httputil.WriteJSONOK(w, map[string]string{"command": cmd})
}

func (ws *WebServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if ws.db == nil {
		httputil.ServiceUnavailable(w, "no journal configured")
		return
	}
	sessions, err := ws.db.Sessions()
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	type sessionSummary struct {
		SessionID string    `json:"session_id"`
		GridSize  int       `json:"grid_size"`
		Steps     int       `json:"steps"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			SessionID: s.SessionID,
			GridSize:  s.GridSize,
			Steps:     len(s.Plan),
			CreatedAt: s.CreatedAt,
		})
	}
	httputil.WriteJSONOK(w, out)
}
