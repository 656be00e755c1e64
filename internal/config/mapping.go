package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/gridmap/internal/occupancy"
	"github.com/banshee-data/gridmap/internal/units"
)

// DefaultConfigPath is the path to the canonical mapping defaults file.
const DefaultConfigPath = "config/mapping.defaults.json"

// PlanEntry is one step of the observation plan as written in config files.
type PlanEntry struct {
	Row       int    `json:"row" yaml:"row"`
	Col       int    `json:"col" yaml:"col"`
	Direction string `json:"direction" yaml:"direction"`
}

// MappingConfig represents the configuration of a mapping session and the
// range conversion applied to raw sensor readings. The same schema is
// accepted as JSON or YAML.
type MappingConfig struct {
	GridSize  *int     `json:"grid_size,omitempty" yaml:"grid_size,omitempty"`
	PFree     *float64 `json:"p_free,omitempty" yaml:"p_free,omitempty"`
	POccupied *float64 `json:"p_occupied,omitempty" yaml:"p_occupied,omitempty"`

	// Range conversion params
	DistanceUnit  *string  `json:"distance_unit,omitempty" yaml:"distance_unit,omitempty"` // unit of robot readings
	CellSizeMM    *float64 `json:"cell_size_mm,omitempty" yaml:"cell_size_mm,omitempty"`
	MaxRangeCells *int     `json:"max_range_cells,omitempty" yaml:"max_range_cells,omitempty"` // 0 disables clamping

	// Plan left out of the file falls back to the default walk. An explicit
	// empty plan is rejected.
	Plan []PlanEntry `json:"plan,omitempty" yaml:"plan,omitempty"`

	// Readings are sensor clearances in cell units, one per plan entry, used
	// for offline replays.
	Readings []float64 `json:"readings,omitempty" yaml:"readings,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyMappingConfig returns a MappingConfig with all fields unset.
func EmptyMappingConfig() *MappingConfig {
	return &MappingConfig{}
}

// DefaultMappingConfig returns the 3x3 walk used by the robot firmware demo.
func DefaultMappingConfig() *MappingConfig {
	return &MappingConfig{
		GridSize:      ptrInt(3),
		PFree:         ptrFloat64(0.2),
		POccupied:     ptrFloat64(0.8),
		DistanceUnit:  ptrString(units.MM),
		CellSizeMM:    ptrFloat64(units.DefaultCellSizeMM),
		MaxRangeCells: ptrInt(0),
		Plan:          defaultPlan(),
		Readings:      []float64{2, 1, 1, 1, 0.1, 1, 0.1, 0.1, 2, 0.1},
	}
}

// defaultPlan is the robot firmware's 3x3 walk.
func defaultPlan() []PlanEntry {
	return []PlanEntry{
		{Row: 2, Col: 0, Direction: "U"},
		{Row: 1, Col: 0, Direction: "U"},
		{Row: 0, Col: 0, Direction: "R"},
		{Row: 0, Col: 1, Direction: "D"},
		{Row: 1, Col: 1, Direction: "D"},
		{Row: 1, Col: 1, Direction: "R"},
		{Row: 1, Col: 2, Direction: "D"},
		{Row: 1, Col: 2, Direction: "U"},
		{Row: 1, Col: 2, Direction: "L"},
		{Row: 1, Col: 1, Direction: "D"},
	}
}

// LoadMappingConfig loads a MappingConfig from a JSON or YAML file.
// The file is validated to ensure it has a supported extension and is under
// the max file size. Fields omitted from the file fall back to the Get*
// defaults.
func LoadMappingConfig(path string) (*MappingConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMappingConfig()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", strings.TrimPrefix(ext, "."), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *MappingConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadMappingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. Plan cells are
// checked against the grid when the session is created.
func (c *MappingConfig) Validate() error {
	if c.GridSize != nil && *c.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive, got %d", *c.GridSize)
	}
	if c.PFree != nil {
		if err := occupancy.ValidateProbability("p_free", *c.PFree); err != nil {
			return err
		}
	}
	if c.POccupied != nil {
		if err := occupancy.ValidateProbability("p_occupied", *c.POccupied); err != nil {
			return err
		}
	}
	if c.DistanceUnit != nil && !units.IsValid(*c.DistanceUnit) {
		return fmt.Errorf("distance_unit must be one of %s, got %q", units.GetValidUnitsString(), *c.DistanceUnit)
	}
	if c.CellSizeMM != nil && *c.CellSizeMM <= 0 {
		return fmt.Errorf("cell_size_mm must be positive, got %f", *c.CellSizeMM)
	}
	if c.MaxRangeCells != nil && *c.MaxRangeCells < 0 {
		return fmt.Errorf("max_range_cells must be non-negative, got %d", *c.MaxRangeCells)
	}
	if c.Plan != nil && len(c.Plan) == 0 {
		return fmt.Errorf("plan must have at least one entry")
	}
	plan := c.GetPlan()
	for i, p := range plan {
		if _, err := occupancy.ParseDirection(p.Direction); err != nil {
			return fmt.Errorf("plan[%d]: %w", i, err)
		}
	}
	if len(c.Readings) > len(plan) {
		return fmt.Errorf("readings has %d entries but plan only %d", len(c.Readings), len(plan))
	}
	return nil
}

// GetGridSize returns the grid_size value or the default.
func (c *MappingConfig) GetGridSize() int {
	if c.GridSize == nil {
		return 3 // default
	}
	return *c.GridSize
}

// GetPFree returns the p_free value or the default.
func (c *MappingConfig) GetPFree() float64 {
	if c.PFree == nil {
		return 0.2 // default
	}
	return *c.PFree
}

// GetPOccupied returns the p_occupied value or the default.
func (c *MappingConfig) GetPOccupied() float64 {
	if c.POccupied == nil {
		return 0.8 // default
	}
	return *c.POccupied
}

// GetDistanceUnit returns the distance_unit value or the default (mm).
func (c *MappingConfig) GetDistanceUnit() string {
	if c.DistanceUnit == nil {
		return units.MM
	}
	return *c.DistanceUnit
}

// GetPlan returns the plan or the default 3x3 walk when none was given.
func (c *MappingConfig) GetPlan() []PlanEntry {
	if c.Plan == nil {
		return defaultPlan()
	}
	return c.Plan
}

// GetCellSizeMM returns the cell_size_mm value or the default.
func (c *MappingConfig) GetCellSizeMM() float64 {
	if c.CellSizeMM == nil {
		return units.DefaultCellSizeMM
	}
	return *c.CellSizeMM
}

// GetMaxRangeCells returns the max_range_cells value or the default (no clamp).
func (c *MappingConfig) GetMaxRangeCells() int {
	if c.MaxRangeCells == nil {
		return 0
	}
	return *c.MaxRangeCells
}

// SessionConfig converts the file representation to an engine config.
func (c *MappingConfig) SessionConfig() (occupancy.Config, error) {
	entries := c.GetPlan()
	plan := make([]occupancy.PlanStep, 0, len(entries))
	for i, p := range entries {
		dir, err := occupancy.ParseDirection(p.Direction)
		if err != nil {
			return occupancy.Config{}, fmt.Errorf("plan[%d]: %w", i, err)
		}
		plan = append(plan, occupancy.PlanStep{
			Cell:      occupancy.Cell{Row: p.Row, Col: p.Col},
			Direction: dir,
		})
	}
	return occupancy.Config{
		GridSize:  c.GetGridSize(),
		Plan:      plan,
		PFree:     c.GetPFree(),
		POccupied: c.GetPOccupied(),
	}, nil
}
