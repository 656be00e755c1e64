package mapper

import (
	"fmt"
	"sort"

	"github.com/banshee-data/gridmap/internal/config"
	"github.com/banshee-data/gridmap/internal/db"
	"github.com/banshee-data/gridmap/internal/occupancy"
)

func newSession(cfg *config.MappingConfig) (*occupancy.Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", occupancy.ErrInvalidConfiguration, err)
	}
	sc, err := cfg.SessionConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", occupancy.ErrInvalidConfiguration, err)
	}
	return occupancy.NewSession(sc)
}

// Replay rebuilds a session from journalled observations. The stored
// range_cells value is used as-is so the result does not depend on the
// current cell size.
func Replay(cfg *config.MappingConfig, observations []db.ObservationRecord) (*occupancy.Session, error) {
	session, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	obs := append([]db.ObservationRecord(nil), observations...)
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].StepIndex < obs[j].StepIndex })

	for _, o := range obs {
		if _, err := session.ApplyObservation(o.StepIndex, float64(o.RangeCells)); err != nil {
			return nil, fmt.Errorf("replaying observation %d: %w", o.ID, err)
		}
	}
	return session, nil
}

// ReplayReadings runs the readings listed in cfg (in cell units) through a
// fresh session.
func ReplayReadings(cfg *config.MappingConfig) (*occupancy.Session, error) {
	session, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	for i, r := range cfg.Readings {
		if _, err := session.ApplyObservation(i, r); err != nil {
			return nil, err
		}
	}
	return session, nil
}
