package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "y86trace", cfg.Name)
	assert.Equal(t, "pipeline", cfg.Trace.Mode)
	assert.Equal(t, []string{"clock", "clk"}, cfg.Trace.ClockNames)
	assert.Equal(t, 128, cfg.Memory.WordCount)
	assert.Equal(t, "Instruction_Mem", cfg.Memory.InstructionArray)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("Y86TRACE_PIPELINE_VCD", "")
	t.Setenv("Y86TRACE_SEQUENTIAL_VCD", "")
	t.Setenv("Y86TRACE_DB", "")

	path := filepath.Join(t.TempDir(), "nested", "y86trace.yaml")

	cfg := DefaultConfig()
	cfg.Trace.Mode = "sequential"
	cfg.Memory.WordCount = 256
	cfg.Logging.Categories = map[string]bool{"trace": false}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sequential", loaded.Trace.Mode)
	assert.Equal(t, 256, loaded.Memory.WordCount)
	assert.Equal(t, cfg.Trace.SequentialVCD, loaded.TracePath())
	assert.False(t, loaded.Logging.IsCategoryEnabled("trace"))
	assert.True(t, loaded.Logging.IsCategoryEnabled("store"))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("Y86TRACE_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Trace.PipelineVCD, cfg.Trace.PipelineVCD)
	assert.Equal(t, "debug", cfg.Logging.Level, "env overrides apply without a file")
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("Y86TRACE_PIPELINE_VCD", "/sim/pipe.vcd")
	t.Setenv("Y86TRACE_SEQUENTIAL_VCD", "/sim/seq.vcd")
	t.Setenv("Y86TRACE_DATA_MEM", "/mem/data.txt")
	t.Setenv("Y86TRACE_FETCH_V", "/src/fetch.v")
	t.Setenv("Y86TRACE_REG_MEM", "/mem/reg.txt")
	t.Setenv("Y86TRACE_DB", "/tmp/runs.db")
	t.Setenv("Y86TRACE_LOG_LEVEL", "warn")

	cfg := &Config{}
	cfg.applyEnvOverrides()

	assert.Equal(t, "/sim/pipe.vcd", cfg.Trace.PipelineVCD)
	assert.Equal(t, "/sim/seq.vcd", cfg.Trace.SequentialVCD)
	assert.Equal(t, "/mem/data.txt", cfg.Memory.DataFile)
	assert.Equal(t, "/src/fetch.v", cfg.Memory.InstructionFile)
	assert.Equal(t, "/mem/reg.txt", cfg.Memory.RegisterFile)
	assert.Equal(t, "/tmp/runs.db", cfg.Store.DatabasePath)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(c *Config)
	}{
		{"bad mode", func(c *Config) { c.Trace.Mode = "superscalar" }},
		{"no trace", func(c *Config) { c.Trace.PipelineVCD = "" }},
		{"word count", func(c *Config) { c.Memory.WordCount = 0 }},
		{"store path", func(c *Config) { c.Store.DatabasePath = "" }},
		{"timeout", func(c *Config) { c.Report.Timeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.GetReportTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.GetWatchDebounce())

	cfg.Report.Timeout = "garbage"
	cfg.Watch.Debounce = "2s"
	assert.Equal(t, 30*time.Second, cfg.GetReportTimeout())
	assert.Equal(t, 2*time.Second, cfg.GetWatchDebounce())
}

func TestLoggingOptions(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", File: "x.log", Categories: map[string]bool{"cli": false}}
	o := lc.Options()
	assert.Equal(t, "debug", o.Level)
	assert.Equal(t, "json", o.Format)
	assert.Equal(t, "x.log", o.File)
	assert.False(t, o.Categories["cli"])
}
