package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdem-server.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
}

table "high-stakes" {
  num_seats      = 4
  small_blind    = 100
  big_blind      = 200
  starting_stack = 40000
  seed           = 42
}

table "casual" {
  small_blind = 25
  big_blind   = 50
}

archive {
  dir = "histories"
}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.ListenAddr())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "histories", cfg.Archive.Dir)

	require.Len(t, cfg.Tables, 2)
	assert.Equal(t, "high-stakes", cfg.Tables[0].Name)
	assert.Equal(t, int64(42), cfg.Tables[0].Seed)
	assert.Equal(t, 40000, cfg.Tables[0].StartingStack)

	// Unset fields fall back to defaults.
	casual := cfg.Tables[1]
	assert.Equal(t, 6, casual.NumSeats)
	assert.Equal(t, 50*100, casual.StartingStack)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.Server.ListenAddr())
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "main", cfg.Tables[0].Name)
}

func TestLoadConfigRejectsBadTables(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"one seat": `
table "solo" {
  num_seats   = 1
  small_blind = 50
  big_blind   = 100
}`,
		"inverted blinds": `
table "odd" {
  small_blind = 200
  big_blind   = 100
}`,
		"stack below blind": `
table "short" {
  small_blind    = 50
  big_blind      = 100
  starting_stack = 60
}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigRejectsMalformedHCL(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(writeConfig(t, `server { address = `))
	assert.Error(t, err)
}
