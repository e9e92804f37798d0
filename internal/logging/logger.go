// Package logging provides categorized logging for y86trace on top of zap.
// Each subsystem logs through its own category; categories can be switched
// off individually, in which case their logger is a no-op.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup and configuration
	CategoryTrace  Category = "trace"  // Trace parsing and decoding
	CategoryMemory Category = "memory" // Memory image loaders
	CategoryClock  Category = "clock"  // Clock period extraction
	CategoryReport Category = "report" // Report assembly
	CategoryStore  Category = "store"  // SQLite persistence
	CategoryWatch  Category = "watch"  // Trace file watcher
	CategoryCLI    Category = "cli"    // Command handlers
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level      string          // debug, info, warn, error
	Format     string          // json or console
	File       string          // empty means stderr
	Categories map[string]bool // per-category toggles; missing means enabled
}

// Logger is a category-scoped logger with printf-style methods.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*Logger)
)

// Initialize builds the process-wide zap logger from opts.
func Initialize(o Options) error {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(o.Format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	if o.Level != "" {
		lvl, err := zap.ParseAtomicLevel(o.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", o.Level, err)
		}
		cfg.Level = lvl
	}
	if o.File != "" {
		cfg.OutputPaths = []string{o.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Use(l, o)
	Boot("logging initialized (level=%s format=%s)", cfg.Level.String(), cfg.Encoding)
	return nil
}

// Use installs l as the process-wide logger. Tests pass an observer core.
func Use(l *zap.Logger, o Options) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	opts = o
	loggers = make(map[Category]*Logger)
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabled(category)
}

func categoryEnabled(category Category) bool {
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	return !exists || enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	z := zap.NewNop()
	if categoryEnabled(category) {
		z = base.Named(string(category))
	}
	l := &Logger{category: category, sugar: z.Sugar()}
	loggers[category] = l
	return l
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Enabled reports whether lvl would be written.
func (l *Logger) Enabled(lvl zapcore.Level) bool {
	return l.sugar.Desugar().Core().Enabled(lvl)
}

// WithRunID returns a category logger tagged with a report/run id.
func WithRunID(category Category, id string) *Logger {
	return Get(category).With("run", id)
}

// CloseAll flushes buffered entries (call at shutdown)
func CloseAll() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }

func Trace(format string, args ...interface{})      { Get(CategoryTrace).Info(format, args...) }
func TraceDebug(format string, args ...interface{}) { Get(CategoryTrace).Debug(format, args...) }

func Memory(format string, args ...interface{})      { Get(CategoryMemory).Info(format, args...) }
func MemoryDebug(format string, args ...interface{}) { Get(CategoryMemory).Debug(format, args...) }
func MemoryWarn(format string, args ...interface{})  { Get(CategoryMemory).Warn(format, args...) }

func Clock(format string, args ...interface{})      { Get(CategoryClock).Info(format, args...) }
func ClockDebug(format string, args ...interface{}) { Get(CategoryClock).Debug(format, args...) }

func ReportWarn(format string, args ...interface{}) { Get(CategoryReport).Warn(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
func WatchError(format string, args ...interface{}) { Get(CategoryWatch).Error(format, args...) }

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
