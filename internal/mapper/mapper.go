// Package mapper drives a mapping session from robot events. It owns the
// occupancy session, walks the observation plan one reading at a time,
// journals what it sees and pushes updates to viewers.
package mapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/gridmap/internal/config"
	"github.com/banshee-data/gridmap/internal/db"
	"github.com/banshee-data/gridmap/internal/monitoring"
	"github.com/banshee-data/gridmap/internal/occupancy"
	"github.com/banshee-data/gridmap/internal/robot"
	"github.com/banshee-data/gridmap/internal/timeutil"
	"github.com/banshee-data/gridmap/internal/units"
)

// ErrPlanComplete is returned when a reading arrives after every plan
// step has been applied.
var ErrPlanComplete = errors.New("observation plan complete")

// Journal persists sessions and raw observations. *db.DB implements it.
type Journal interface {
	RecordSession(db.SessionRecord) error
	RecordObservation(db.ObservationRecord) error
}

// Update is pushed to viewers after every handled event.
type Update struct {
	Event string `json:"event"`
	Value any    `json:"value,omitempty"`
}

// Snapshot is a point-in-time copy of the mapper state.
type Snapshot struct {
	SessionID      string      `json:"session_id"`
	GridSize       int         `json:"grid_size"`
	PlanLength     int         `json:"plan_length"`
	NextStep       int         `json:"next_step"`
	Latest         int         `json:"latest"`
	Complete       bool        `json:"complete"`
	LastDistanceMM *float64    `json:"last_distance_mm,omitempty"`
	Probability    []float64   `json:"probability"`
	Table          [][]float64 `json:"table"`
}

// Mapper serialises all access to one occupancy session.
type Mapper struct {
	mu           sync.Mutex
	cfg          *config.MappingConfig
	session      *occupancy.Session
	next         int
	lastDistance *float64

	journal Journal
	clock   timeutil.Clock

	subscriberMu sync.Mutex
	subscribers  map[string]chan Update
}

// New starts a session for cfg. journal may be nil, in which case nothing
// is persisted. A nil clock uses the wall clock.
func New(cfg *config.MappingConfig, journal Journal, clock timeutil.Clock) (*Mapper, error) {
	if cfg == nil {
		cfg = config.DefaultMappingConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", occupancy.ErrInvalidConfiguration, err)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	m := &Mapper{
		cfg:         cfg,
		journal:     journal,
		clock:       clock,
		subscribers: make(map[string]chan Update),
	}
	if err := m.startSession(); err != nil {
		return nil, err
	}
	return m, nil
}

// startSession must be called with mu held (or before m is shared).
func (m *Mapper) startSession() error {
	sc, err := m.cfg.SessionConfig()
	if err != nil {
		return fmt.Errorf("%w: %v", occupancy.ErrInvalidConfiguration, err)
	}
	session, err := occupancy.NewSession(sc)
	if err != nil {
		return err
	}
	m.session = session
	m.next = 0
	m.lastDistance = nil

	if m.journal != nil {
		rec := db.SessionRecord{
			SessionID:     session.ID,
			GridSize:      m.cfg.GetGridSize(),
			PFree:         m.cfg.GetPFree(),
			POccupied:     m.cfg.GetPOccupied(),
			CellSizeMM:    m.cfg.GetCellSizeMM(),
			MaxRangeCells: m.cfg.GetMaxRangeCells(),
			Plan:          m.cfg.GetPlan(),
			CreatedAt:     m.clock.Now(),
		}
		if err := m.journal.RecordSession(rec); err != nil {
			monitoring.Logf("[mapper] failed to journal session %s: %v", session.ID, err)
		}
	}
	monitoring.Logf("[mapper] started session %s (%dx%d, %d steps)", session.ID, session.Grid.Size, session.Grid.Size, len(session.Plan))
	return nil
}

// HandleEvent applies one raw payload from the robot. Distances in the
// payload are in the configured distance_unit.
func (m *Mapper) HandleEvent(payload string) error {
	e, err := robot.ParseEvent(payload)
	if err != nil {
		return err
	}

	switch e.Event {
	case robot.EventDistance:
		v := units.ToMillimetres(*e.Value, m.cfg.GetDistanceUnit())
		m.mu.Lock()
		m.lastDistance = &v
		m.mu.Unlock()
		monitoring.Debugf("[mapper] distance %.1fmm", v)
		m.publish(Update{Event: robot.EventDistanceFrontend, Value: v})
	case robot.EventUpdateMatrix:
		_, err := m.Observe(units.ToMillimetres(*e.Distance, m.cfg.GetDistanceUnit()))
		return err
	case robot.EventCollision:
		monitoring.Logf("[mapper] robot reported a collision")
		m.publish(Update{Event: robot.EventCollision})
	default:
		monitoring.Debugf("[mapper] ignoring event %q", e.Event)
	}
	return nil
}

// Observe converts a distance in millimetres to cells and applies it to
// the next plan step. The returned update carries the full history table.
func (m *Mapper) Observe(distanceMM float64) (Update, error) {
	m.mu.Lock()
	if m.next >= len(m.session.Plan) {
		m.mu.Unlock()
		return Update{}, fmt.Errorf("%w: %d steps applied", ErrPlanComplete, m.next)
	}

	step := m.next
	rangeCells := units.DistanceToCells(distanceMM, m.cfg.GetCellSizeMM(), m.cfg.GetMaxRangeCells())
	if _, err := m.session.ApplyObservation(step, float64(rangeCells)); err != nil {
		m.mu.Unlock()
		return Update{}, err
	}
	m.next++

	if m.journal != nil {
		rec := db.ObservationRecord{
			SessionID:  m.session.ID,
			StepIndex:  step,
			DistanceMM: distanceMM,
			RangeCells: rangeCells,
			RecordedAt: m.clock.Now(),
		}
		if err := m.journal.RecordObservation(rec); err != nil {
			monitoring.Logf("[mapper] failed to journal step %d: %v", step, err)
		}
	}

	ps := m.session.Plan[step]
	update := Update{Event: robot.EventUpdateMatrixFrontend, Value: m.session.History().Table()}
	m.mu.Unlock()

	monitoring.Logf("[mapper] step %d at %s facing %s: %.1fmm -> %d cells", step, ps.Cell, ps.Direction, distanceMM, rangeCells)
	m.publish(update)
	return update, nil
}

// Reset discards the current session and starts a fresh one with a new ID.
func (m *Mapper) Reset() (string, error) {
	m.mu.Lock()
	err := m.startSession()
	id := m.session.ID
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	m.publish(Update{Event: robot.EventUpdateMatrixFrontend, Value: m.Snapshot().Table})
	return id, nil
}

// Snapshot copies the current state.
func (m *Mapper) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		SessionID:   m.session.ID,
		GridSize:    m.session.Grid.Size,
		PlanLength:  len(m.session.Plan),
		NextStep:    m.next,
		Latest:      m.session.Latest(),
		Complete:    m.next >= len(m.session.Plan),
		Probability: m.session.ProbabilityMap(),
		Table:       m.session.History().Table(),
	}
	if m.lastDistance != nil {
		v := *m.lastDistance
		s.LastDistanceMM = &v
	}
	return s
}

// ExportTable writes the history table of the current session to w.
func (m *Mapper) ExportTable(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ExportTable(w)
}

// Subscribe registers a viewer. Slow viewers miss updates rather than
// stalling the mapper.
func (m *Mapper) Subscribe() (string, chan Update) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	id := uuid.NewString()
	ch := make(chan Update, 16)
	m.subscribers[id] = ch
	return id, ch
}

func (m *Mapper) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

func (m *Mapper) publish(u Update) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}

// Run consumes payloads from link until ctx is done or the link closes its
// subscription. Payloads that cannot be applied are logged and skipped.
func (m *Mapper) Run(ctx context.Context, link robot.Link) error {
	id, payloads := link.Subscribe()
	defer link.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-payloads:
			if !ok {
				return nil
			}
			if err := m.HandleEvent(payload); err != nil {
				monitoring.Logf("[mapper] %v", err)
			}
		}
	}
}
