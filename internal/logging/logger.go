// Package logging provides config-driven categorized logging for nlsql.
// Every category is a named child of one process-wide zap logger. Until Initialize
// is called all loggers are no-ops, so packages can log unconditionally.
package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nlsql/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot  Category = "boot"  // Startup, configuration, shutdown
	CategoryAPI   Category = "api"   // Text-generation calls
	CategoryStore Category = "store" // Dataset access
	CategoryGuard Category = "guard" // Denylist decisions
	CategoryHTTP  Category = "http"  // Request handling and rendering
	CategoryAudit Category = "audit" // One event per request outcome
)

// Logger is a printf-style logger bound to one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	base      = zap.NewNop()
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	cfg       config.LoggingConfig
)

// Initialize builds the process logger from the logging configuration.
// Should be called once at startup.
func Initialize(lc config.LoggingConfig) error {
	zc := zap.NewProductionConfig()
	if lc.Format == "console" || lc.Format == "text" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.DisableStacktrace = true

	level, err := zapcore.ParseLevel(defaultString(lc.Level, "info"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	SetBase(l, lc)
	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s", level, defaultString(lc.Format, "json"))
	return nil
}

// SetBase installs an existing zap logger. Tests use it with zaptest/observer cores.
func SetBase(l *zap.Logger, lc config.LoggingConfig) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	base = l
	cfg = lc
	loggers = make(map[Category]*Logger)
}

// Zap returns the underlying zap logger.
func Zap() *zap.Logger {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	return base
}

// Sync flushes buffered log entries (call at shutdown).
func Sync() {
	_ = Zap().Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	loggersMu.RLock()
	defer loggersMu.RUnlock()
	return cfg.IsCategoryEnabled(string(category))
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	z := base
	if !cfg.IsCategoryEnabled(string(category)) {
		z = zap.NewNop()
	}
	l := &Logger{category: category, sugar: z.Named(string(category)).Sugar()}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootError logs an error to the boot category
func BootError(format string, args ...interface{}) {
	Get(CategoryBoot).Error(format, args...)
}

// API logs to the api category
func API(format string, args ...interface{}) {
	Get(CategoryAPI).Info(format, args...)
}

// APIDebug logs debug to the api category
func APIDebug(format string, args ...interface{}) {
	Get(CategoryAPI).Debug(format, args...)
}

// APIError logs an error to the api category
func APIError(format string, args ...interface{}) {
	Get(CategoryAPI).Error(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// GuardWarn logs a warning to the guard category
func GuardWarn(format string, args ...interface{}) {
	Get(CategoryGuard).Warn(format, args...)
}

// HTTPDebug logs debug to the http category
func HTTPDebug(format string, args ...interface{}) {
	Get(CategoryHTTP).Debug(format, args...)
}

// HTTPError logs an error to the http category
func HTTPError(format string, args ...interface{}) {
	Get(CategoryHTTP).Error(format, args...)
}

// =============================================================================
// REQUEST ID TRACING
// =============================================================================

// RequestLogger provides request-scoped logging with a correlation ID
type RequestLogger struct {
	sugar *zap.SugaredLogger
}

// WithRequestID creates a request-scoped logger
func WithRequestID(category Category, requestID string) *RequestLogger {
	return &RequestLogger{sugar: Get(category).sugar.With("req", requestID)}
}

func (r *RequestLogger) Debug(format string, args ...interface{}) {
	r.sugar.Debugf(format, args...)
}

func (r *RequestLogger) Info(format string, args ...interface{}) {
	r.sugar.Infof(format, args...)
}

func (r *RequestLogger) Warn(format string, args ...interface{}) {
	r.sugar.Warnf(format, args...)
}

func (r *RequestLogger) Error(format string, args ...interface{}) {
	r.sugar.Errorf(format, args...)
}

// =============================================================================
// TIMING HELPERS
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

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
