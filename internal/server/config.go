package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/cardroom/holdem/internal/engine"
)

// Config is the complete server configuration.
type Config struct {
	Server  Settings        `hcl:"server,block"`
	Tables  []TableDef      `hcl:"table,block"`
	Archive ArchiveSettings `hcl:"archive,block"`
}

// Settings contains server-level configuration.
type Settings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// TableDef defines a table created at startup. A zero seed means the table
// seeds itself from the clock.
type TableDef struct {
	Name          string `hcl:"name,label"`
	NumSeats      int    `hcl:"num_seats,optional"`
	SmallBlind    int    `hcl:"small_blind"`
	BigBlind      int    `hcl:"big_blind"`
	StartingStack int    `hcl:"starting_stack,optional"`
	Seed          int64  `hcl:"seed,optional"`
}

// ArchiveSettings controls hand history archiving.
type ArchiveSettings struct {
	Dir  string `hcl:"dir,optional"`
	Mode string `hcl:"mode,optional"`
}

// Engine converts a table definition to an engine configuration.
func (d TableDef) Engine() engine.TableConfig {
	return engine.TableConfig{
		NumSeats:      d.NumSeats,
		SmallBlind:    d.SmallBlind,
		BigBlind:      d.BigBlind,
		StartingStack: d.StartingStack,
		Seed:          d.Seed,
	}
}

// ListenAddr is the host:port the server binds to.
func (s Settings) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// DefaultConfig returns the configuration used when no file is present:
// one six-seat table with 50/100 blinds and 10k stacks.
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Tables: []TableDef{
			{
				Name:          "main",
				NumSeats:      6,
				SmallBlind:    50,
				BigBlind:      100,
				StartingStack: 10000,
			},
		},
		Archive: ArchiveSettings{
			Dir:  "hand-histories",
			Mode: engine.ExportFull,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", filename, diags.Error())
	}

	var config Config
	if diags := gohcl.DecodeBody(file.Body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", filename, diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Archive.Mode == "" {
		config.Archive.Mode = engine.ExportFull
	}

	for i := range config.Tables {
		t := &config.Tables[i]
		if t.NumSeats == 0 {
			t.NumSeats = 6
		}
		if t.StartingStack == 0 {
			t.StartingStack = t.BigBlind * 100
		}
		if err := validateTable(t); err != nil {
			return nil, err
		}
	}
	if len(config.Tables) == 0 {
		config.Tables = DefaultConfig().Tables
	}
	return &config, nil
}

func validateTable(t *TableDef) error {
	if t.NumSeats < 2 || t.NumSeats > 9 {
		return fmt.Errorf("table %q: num_seats must be 2-9, got %d", t.Name, t.NumSeats)
	}
	if t.SmallBlind <= 0 || t.BigBlind <= 0 {
		return fmt.Errorf("table %q: blinds must be positive", t.Name)
	}
	if t.BigBlind < t.SmallBlind {
		return fmt.Errorf("table %q: big_blind %d below small_blind %d", t.Name, t.BigBlind, t.SmallBlind)
	}
	if t.StartingStack < t.BigBlind {
		return fmt.Errorf("table %q: starting_stack %d below big_blind %d", t.Name, t.StartingStack, t.BigBlind)
	}
	return nil
}
