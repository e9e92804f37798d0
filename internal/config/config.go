package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all y86trace configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Trace inputs
	Trace TraceConfig `yaml:"trace"`

	// Auxiliary memory images
	Memory MemoryConfig `yaml:"memory"`

	// Report assembly
	Report ReportConfig `yaml:"report"`

	// Run persistence
	Store StoreConfig `yaml:"store"`

	// Trace file watcher
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// TraceConfig locates the simulator's waveform dumps.
type TraceConfig struct {
	Mode          string   `yaml:"mode"` // pipeline, sequential
	PipelineVCD   string   `yaml:"pipeline_vcd"`
	SequentialVCD string   `yaml:"sequential_vcd"`
	ClockNames    []string `yaml:"clock_names"` // candidates for clock period extraction, in priority order
}

// MemoryConfig locates the initial-state images.
type MemoryConfig struct {
	DataFile         string `yaml:"data_file"`
	InstructionFile  string `yaml:"instruction_file"`  // fetch stage source
	InstructionArray string `yaml:"instruction_array"` // array initialized in InstructionFile
	RegisterFile     string `yaml:"register_file"`
	WordCount        int    `yaml:"word_count"` // data memory words addressable by the sequential model
}

// ReportConfig configures report assembly.
type ReportConfig struct {
	Timeout string `yaml:"timeout"`
}

// StoreConfig configures the run database.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	Enabled      bool   `yaml:"enabled"`
}

// WatchConfig configures the trace file watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "y86trace",
		Version: "0.1.0",

		Trace: TraceConfig{
			Mode:          "pipeline",
			PipelineVCD:   "hardware/pipeline/sim/proc.vcd",
			SequentialVCD: "hardware/sequential/sim/proc.vcd",
			ClockNames:    []string{"clock", "clk"},
		},

		Memory: MemoryConfig{
			DataFile:         "hardware/pipeline/DATA_MEM.txt",
			InstructionFile:  "hardware/pipeline/src/fetch.v",
			InstructionArray: "Instruction_Mem",
			RegisterFile:     "hardware/sequential/REG_MEM.txt",
			WordCount:        128,
		},

		Report: ReportConfig{
			Timeout: "30s",
		},

		Store: StoreConfig{
			DatabasePath: "data/y86trace.db",
			Enabled:      true,
		},

		Watch: WatchConfig{
			Debounce: "500ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("Y86TRACE_PIPELINE_VCD"); v != "" {
		c.Trace.PipelineVCD = v
	}
	if v := os.Getenv("Y86TRACE_SEQUENTIAL_VCD"); v != "" {
		c.Trace.SequentialVCD = v
	}
	if v := os.Getenv("Y86TRACE_DATA_MEM"); v != "" {
		c.Memory.DataFile = v
	}
	if v := os.Getenv("Y86TRACE_FETCH_V"); v != "" {
		c.Memory.InstructionFile = v
	}
	if v := os.Getenv("Y86TRACE_REG_MEM"); v != "" {
		c.Memory.RegisterFile = v
	}

	// Database path from environment
	if v := os.Getenv("Y86TRACE_DB"); v != "" {
		c.Store.DatabasePath = v
	}
	if v := os.Getenv("Y86TRACE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// TracePath returns the trace file for the configured mode.
func (c *Config) TracePath() string {
	if c.Trace.Mode == "sequential" {
		return c.Trace.SequentialVCD
	}
	return c.Trace.PipelineVCD
}

// GetReportTimeout returns the report timeout as a duration.
func (c *Config) GetReportTimeout() time.Duration {
	d, err := time.ParseDuration(c.Report.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetWatchDebounce returns the watcher debounce interval as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// ValidModes lists the supported processor models.
var ValidModes = []string{"pipeline", "sequential"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validMode := false
	for _, m := range ValidModes {
		if c.Trace.Mode == m {
			validMode = true
			break
		}
	}
	if !validMode {
		return fmt.Errorf("invalid trace mode: %s (valid: %v)", c.Trace.Mode, ValidModes)
	}

	if c.TracePath() == "" {
		return fmt.Errorf("no trace file configured for %s mode", c.Trace.Mode)
	}
	if c.Memory.WordCount <= 0 {
		return fmt.Errorf("memory.word_count must be positive, got %d", c.Memory.WordCount)
	}
	if c.Store.Enabled && c.Store.DatabasePath == "" {
		return fmt.Errorf("store enabled but store.database_path is empty")
	}
	if _, err := time.ParseDuration(c.Report.Timeout); c.Report.Timeout != "" && err != nil {
		return fmt.Errorf("invalid report.timeout %q: %w", c.Report.Timeout, err)
	}
	return nil
}
