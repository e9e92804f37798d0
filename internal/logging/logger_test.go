package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, lvl zapcore.Level, o Options) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(lvl)
	Use(zap.New(core), o)
	t.Cleanup(func() { Use(zap.NewNop(), Options{}) })
	return logs
}

func TestCategoriesAreNamed(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{})

	Trace("parsed %d cycles", 3)
	MemoryDebug("skipped line %d", 7)
	ReportWarn("clock unavailable")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "trace", entries[0].LoggerName)
	assert.Equal(t, "parsed 3 cycles", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "memory", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestDisabledCategoryIsNoop(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{Categories: map[string]bool{"trace": false, "store": true}})

	assert.False(t, IsCategoryEnabled(CategoryTrace))
	assert.True(t, IsCategoryEnabled(CategoryStore))
	assert.True(t, IsCategoryEnabled(CategoryWatch), "unlisted categories stay enabled")

	Trace("hidden")
	Store("shown")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown", logs.All()[0].Message)
}

func TestLevelFiltering(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel, Options{})

	TraceDebug("too quiet")
	Watch("loud enough")

	assert.Equal(t, 1, logs.FilterMessage("loud enough").Len())
	assert.Equal(t, 0, logs.FilterMessage("too quiet").Len())
	assert.False(t, Get(CategoryTrace).Enabled(zapcore.DebugLevel))
}

func TestWithRunID(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{})

	WithRunID(CategoryReport, "abc").Info("built")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["run"])
}

func TestTimer(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel, Options{})

	timer := StartTimer(CategoryTrace, "parse")
	elapsed := timer.Stop()
	assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.DebugLevel).Len())

	StartTimer(CategoryTrace, "slow").StopWithThreshold(-time.Second)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestInitialize(t *testing.T) {
	t.Cleanup(func() { Use(zap.NewNop(), Options{}) })

	path := filepath.Join(t.TempDir(), "y86trace.log")
	require.NoError(t, Initialize(Options{Level: "debug", Format: "json", File: path}))
	Store("opened")
	CloseAll()

	assert.FileExists(t, path)
	assert.Error(t, Initialize(Options{Level: "loud"}))
}
