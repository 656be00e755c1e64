// Package db journals mapping sessions and their raw observations to sqlite
// so that a map can be rebuilt after the fact. The occupancy map itself is
// never stored; it is recomputed by replaying the journal.
package db

import (
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/gridmap/internal/config"
)

// ErrSessionNotFound is returned when a session id has no journal entry.
var ErrSessionNotFound = errors.New("session not found")

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the sqlite file at path and applies all
// embedded migrations.
func NewDB(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Serialise writers; the journal sees one writer per session anyway.
	sqldb.SetMaxOpenConns(1)

	if _, err := sqldb.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	db := &DB{sqldb}
	if err := db.MigrateUp(); err != nil {
		sqldb.Close()
		return nil, err
	}
	return db, nil
}

// SessionRecord is the journal row describing one mapping session.
type SessionRecord struct {
	SessionID     string
	GridSize      int
	PFree         float64
	POccupied     float64
	CellSizeMM    float64
	MaxRangeCells int
	Plan          []config.PlanEntry
	CreatedAt     time.Time
}

// MappingConfig rebuilds the config the session was started with.
func (r SessionRecord) MappingConfig() *config.MappingConfig {
	gridSize, pFree, pOcc := r.GridSize, r.PFree, r.POccupied
	cellSize, maxRange := r.CellSizeMM, r.MaxRangeCells
	return &config.MappingConfig{
		GridSize:      &gridSize,
		PFree:         &pFree,
		POccupied:     &pOcc,
		CellSizeMM:    &cellSize,
		MaxRangeCells: &maxRange,
		Plan:          append([]config.PlanEntry(nil), r.Plan...),
	}
}

// ObservationRecord is one journalled sensor reading.
type ObservationRecord struct {
	ID         int64
	SessionID  string
	StepIndex  int
	DistanceMM float64
	RangeCells int
	RecordedAt time.Time
}

func (e *ObservationRecord) String() string {
	return fmt.Sprintf("Session: %s, Step: %d, Distance: %.1fmm, Range: %d cells", e.SessionID, e.StepIndex, e.DistanceMM, e.RangeCells)
}

// RecordSession inserts the session header row.
func (db *DB) RecordSession(rec SessionRecord) error {
	planJSON, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO mapping_sessions (
			session_id, grid_size, p_free, p_occupied, cell_size_mm,
			max_range_cells, plan_json, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.GridSize, rec.PFree, rec.POccupied, rec.CellSizeMM,
		rec.MaxRangeCells, string(planJSON), rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record session %s: %w", rec.SessionID, err)
	}
	return nil
}

// RecordObservation appends one reading to a session's journal.
func (db *DB) RecordObservation(rec ObservationRecord) error {
	_, err := db.Exec(
		`INSERT INTO observations (
			session_id, step_index, distance_mm, range_cells, recorded_unix_nanos
		) VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.StepIndex, rec.DistanceMM, rec.RangeCells, rec.RecordedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record observation: %w", err)
	}
	return nil
}

func scanSession(row interface{ Scan(...any) error }) (SessionRecord, error) {
	var (
		rec      SessionRecord
		planJSON string
		created  int64
	)
	if err := row.Scan(
		&rec.SessionID, &rec.GridSize, &rec.PFree, &rec.POccupied,
		&rec.CellSizeMM, &rec.MaxRangeCells, &planJSON, &created,
	); err != nil {
		return SessionRecord{}, err
	}
	if err := json.Unmarshal([]byte(planJSON), &rec.Plan); err != nil {
		return SessionRecord{}, fmt.Errorf("failed to parse plan for session %s: %w", rec.SessionID, err)
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	return rec, nil
}

// Session loads one session header.
func (db *DB) Session(id string) (SessionRecord, error) {
	row := db.QueryRow(`SELECT session_id, grid_size, p_free, p_occupied, cell_size_mm,
			max_range_cells, plan_json, created_unix_nanos
		FROM mapping_sessions WHERE session_id = ?`, id)
	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return rec, err
}

// Sessions lists the most recent sessions, newest first.
func (db *DB) Sessions() ([]SessionRecord, error) {
	rows, err := db.Query(`SELECT session_id, grid_size, p_free, p_occupied, cell_size_mm,
			max_range_cells, plan_json, created_unix_nanos
		FROM mapping_sessions ORDER BY created_unix_nanos DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Observations returns a session's readings in the order they arrived.
func (db *DB) Observations(sessionID string) ([]ObservationRecord, error) {
	rows, err := db.Query(`SELECT observation_id, session_id, step_index, distance_mm,
			range_cells, recorded_unix_nanos
		FROM observations WHERE session_id = ? ORDER BY observation_id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []ObservationRecord
	for rows.Next() {
		var (
			rec      ObservationRecord
			recorded int64
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StepIndex, &rec.DistanceMM, &rec.RangeCells, &recorded); err != nil {
			return nil, err
		}
		rec.RecordedAt = time.Unix(0, recorded).UTC()
		observations = append(observations, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return observations, nil
}

func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://gridmap.db", db.DB, &tailsql.DBOptions{
		Label: "Mapping journal",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the journal now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("gridmap-backup-%d.db", time.Now().Unix())
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", backupPath))
		w.Header().Set("Content-Type", "application/gzip")

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			log.Printf("Failed to stream backup: %v", err)
		}
	}))
}
