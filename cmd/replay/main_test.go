package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridmap/internal/config"
	"github.com/banshee-data/gridmap/internal/db"
	"github.com/banshee-data/gridmap/internal/mapper"
	"github.com/banshee-data/gridmap/internal/timeutil"
)

func TestParseFlags(t *testing.T) {
	o, err := parseFlags([]string{"-db", "j.db", "-session", "abc", "-out", "plots"})
	require.NoError(t, err)
	assert.Equal(t, options{dbPath: "j.db", sessionID: "abc", outDir: "plots"}, o)

	_, err = parseFlags([]string{"-session", "abc"})
	assert.Error(t, err)
	_, err = parseFlags([]string{"-list"})
	assert.Error(t, err)
}

func TestRun_DefaultReadings(t *testing.T) {
	var out strings.Builder
	require.NoError(t, run(options{}, &out))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	// header plus one row per cell of the 3x3 demo grid
	assert.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "Cell"))
}

func TestRun_WritesPlots(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder
	require.NoError(t, run(options{outDir: dir}, &out))
	assert.Contains(t, out.String(), "3 history plots")

	_, err := os.Stat(filepath.Join(dir, "probability.png"))
	assert.NoError(t, err)
}

func TestRun_JournalledSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	journal, err := db.NewDB(path)
	require.NoError(t, err)

	m, err := mapper.New(config.DefaultMappingConfig(), journal, timeutil.NewMockClock(time.Unix(1700000000, 0)))
	require.NoError(t, err)
	for _, mm := range []float64{500, 250, 250} {
		_, err := m.Observe(mm)
		require.NoError(t, err)
	}
	id := m.Snapshot().SessionID
	var live strings.Builder
	require.NoError(t, m.ExportTable(&live))
	require.NoError(t, journal.Close())

	var out strings.Builder
	require.NoError(t, run(options{dbPath: path, sessionID: id}, &out))
	assert.Equal(t, live.String(), out.String())

	out.Reset()
	require.NoError(t, run(options{dbPath: path, list: true}, &out))
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "3x3")

	err = run(options{dbPath: path, sessionID: "missing"}, &out)
	assert.ErrorIs(t, err, db.ErrSessionNotFound)
}
