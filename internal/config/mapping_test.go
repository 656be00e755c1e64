package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/gridmap/internal/occupancy"
)

func TestDefaultMappingConfig(t *testing.T) {
	cfg := DefaultMappingConfig()

	if cfg.GridSize == nil || *cfg.GridSize != 3 {
		t.Errorf("Expected GridSize 3, got %v", cfg.GridSize)
	}
	if cfg.PFree == nil || *cfg.PFree != 0.2 {
		t.Errorf("Expected PFree 0.2, got %v", cfg.PFree)
	}
	if len(cfg.Plan) != 10 {
		t.Errorf("Expected 10 plan entries, got %d", len(cfg.Plan))
	}
	if len(cfg.Readings) != len(cfg.Plan) {
		t.Errorf("Expected one reading per plan entry, got %d", len(cfg.Readings))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyMappingConfig()

	if cfg.GetGridSize() != 3 {
		t.Errorf("GetGridSize() = %d, want 3", cfg.GetGridSize())
	}
	if cfg.GetPFree() != 0.2 {
		t.Errorf("GetPFree() = %f, want 0.2", cfg.GetPFree())
	}
	if cfg.GetPOccupied() != 0.8 {
		t.Errorf("GetPOccupied() = %f, want 0.8", cfg.GetPOccupied())
	}
	if cfg.GetCellSizeMM() != 250 {
		t.Errorf("GetCellSizeMM() = %f, want 250", cfg.GetCellSizeMM())
	}
	if cfg.GetMaxRangeCells() != 0 {
		t.Errorf("GetMaxRangeCells() = %d, want 0", cfg.GetMaxRangeCells())
	}
	if cfg.GetDistanceUnit() != "mm" {
		t.Errorf("GetDistanceUnit() = %q, want mm", cfg.GetDistanceUnit())
	}
}

func TestMissingPlanUsesDefaultWalk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scalars.yaml")
	if err := os.WriteFile(path, []byte("grid_size: 3\np_free: 0.3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadMappingConfig(path)
	if err != nil {
		t.Fatalf("LoadMappingConfig: %v", err)
	}
	sc, err := cfg.SessionConfig()
	if err != nil {
		t.Fatalf("SessionConfig: %v", err)
	}
	if len(sc.Plan) != len(DefaultMappingConfig().Plan) {
		t.Fatalf("plan has %d steps, want the default %d", len(sc.Plan), len(DefaultMappingConfig().Plan))
	}

	empty := filepath.Join(t.TempDir(), "empty-plan.json")
	if err := os.WriteFile(empty, []byte(`{"plan": []}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMappingConfig(empty); err == nil {
		t.Error("Expected error for an explicit empty plan, got nil")
	}
}

func TestLoadMappingConfigJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "grid_size": 5,
  "p_free": 0.1,
  "max_range_cells": 4,
  "plan": [{"row": 4, "col": 0, "direction": "R"}]
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadMappingConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetGridSize() != 5 {
		t.Errorf("Expected GridSize 5, got %d", cfg.GetGridSize())
	}
	if cfg.GetPFree() != 0.1 {
		t.Errorf("Expected PFree 0.1, got %f", cfg.GetPFree())
	}
	// omitted field keeps its default
	if cfg.GetPOccupied() != 0.8 {
		t.Errorf("Expected POccupied default 0.8, got %f", cfg.GetPOccupied())
	}
	if cfg.GetMaxRangeCells() != 4 {
		t.Errorf("Expected MaxRangeCells 4, got %d", cfg.GetMaxRangeCells())
	}
	if len(cfg.Plan) != 1 || cfg.Plan[0].Direction != "R" {
		t.Errorf("unexpected plan %+v", cfg.Plan)
	}
}

func TestLoadMappingConfigYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "walk.yaml")

	testYAML := `grid_size: 4
p_occupied: 0.7
plan:
  - {row: 3, col: 0, direction: U}
  - {row: 0, col: 0, direction: right}
readings: [2, 1.5]
`
	if err := os.WriteFile(configPath, []byte(testYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadMappingConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetGridSize() != 4 || cfg.GetPOccupied() != 0.7 {
		t.Errorf("unexpected values grid=%d p_occ=%f", cfg.GetGridSize(), cfg.GetPOccupied())
	}
	if len(cfg.Readings) != 2 || cfg.Readings[1] != 1.5 {
		t.Errorf("unexpected readings %v", cfg.Readings)
	}

	sc, err := cfg.SessionConfig()
	if err != nil {
		t.Fatalf("SessionConfig() error: %v", err)
	}
	if sc.Plan[1].Direction != occupancy.Right {
		t.Errorf("Expected second step facing Right, got %s", sc.Plan[1].Direction)
	}
	if sc.Plan[0].Cell != (occupancy.Cell{Row: 3, Col: 0}) {
		t.Errorf("unexpected first cell %s", sc.Plan[0].Cell)
	}
}

func TestLoadMappingConfigErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := LoadMappingConfig("/nonexistent/path/to/config.json"); err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}

	txt := filepath.Join(tmpDir, "config.txt")
	os.WriteFile(txt, []byte("{}"), 0644)
	if _, err := LoadMappingConfig(txt); err == nil {
		t.Error("Expected error for unsupported extension, got nil")
	}

	bad := filepath.Join(tmpDir, "bad.json")
	os.WriteFile(bad, []byte(`{"grid_size": "three"`), 0644)
	if _, err := LoadMappingConfig(bad); err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}

	invalid := filepath.Join(tmpDir, "invalid.json")
	os.WriteFile(invalid, []byte(`{"p_free": 1.0}`), 0644)
	if _, err := LoadMappingConfig(invalid); err == nil {
		t.Error("Expected validation error for p_free=1, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *MappingConfig
		wantErr bool
	}{
		{"valid config", DefaultMappingConfig(), false},
		{"empty config is valid", &MappingConfig{}, false},
		{"zero grid size", &MappingConfig{GridSize: ptrInt(0)}, true},
		{"p_free zero", &MappingConfig{PFree: ptrFloat64(0)}, true},
		{"p_occupied one", &MappingConfig{POccupied: ptrFloat64(1)}, true},
		{"metre readings", &MappingConfig{DistanceUnit: ptrString("m")}, false},
		{"unknown distance unit", &MappingConfig{DistanceUnit: ptrString("ft")}, true},
		{"explicit empty plan", &MappingConfig{Plan: []PlanEntry{}}, true},
		{"negative cell size", &MappingConfig{CellSizeMM: ptrFloat64(-1)}, true},
		{"negative max range", &MappingConfig{MaxRangeCells: ptrInt(-2)}, true},
		{"bad direction", &MappingConfig{Plan: []PlanEntry{{Direction: "NE"}}}, true},
		{
			"too many readings",
			&MappingConfig{Plan: []PlanEntry{{Direction: "U"}}, Readings: []float64{1, 2}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	want := DefaultMappingConfig()

	if cfg.GetGridSize() != want.GetGridSize() {
		t.Errorf("defaults file grid_size %d differs from code %d", cfg.GetGridSize(), want.GetGridSize())
	}
	if len(cfg.Plan) != len(want.Plan) {
		t.Fatalf("defaults file plan has %d entries, code has %d", len(cfg.Plan), len(want.Plan))
	}
	for i := range cfg.Plan {
		if cfg.Plan[i] != want.Plan[i] {
			t.Errorf("plan[%d] = %+v, want %+v", i, cfg.Plan[i], want.Plan[i])
		}
	}
}
