// Package build holds the logging infrastructure shared by the binary and
// the library packages: a rotating log writer and the subsystem logger
// registry.
package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// LogWriter is an io.Writer that writes to both stdout and, once
// initialized, a rotating log file.
type LogWriter struct {
	logRotator *rotator.Rotator
}

// Write writes the byte slice to both stdout and the log rotator, when
// active.
func (w *LogWriter) Write(b []byte) (int, error) {
	os.Stdout.Write(b)
	if w.logRotator != nil {
		w.logRotator.Write(b)
	}
	return len(b), nil
}

// RotatingLogWriter maintains the root slog backend, the log rotator and
// the registry of subsystem loggers.
type RotatingLogWriter struct {
	// GenSubLogger creates a new subsystem logger from the root backend.
	GenSubLogger func(string) slog.Logger

	logWriter *LogWriter

	backendLog *slog.Backend

	subsystemLoggers map[string]slog.Logger
}

// NewRotatingLogWriter creates a new rotating log writer. Loggers it
// generates write to stdout immediately; file output starts after
// InitLogRotator.
func NewRotatingLogWriter() *RotatingLogWriter {
	logWriter := &LogWriter{}
	backendLog := slog.NewBackend(logWriter)
	return &RotatingLogWriter{
		GenSubLogger:     backendLog.Logger,
		logWriter:        logWriter,
		backendLog:       backendLog,
		subsystemLoggers: make(map[string]slog.Logger),
	}
}

// InitLogRotator initializes the log file rotator to write to logFile,
// rolling at maxLogFileSize MB and keeping maxLogFiles rolled files.
func (r *RotatingLogWriter) InitLogRotator(logFile string, maxLogFileSize, maxLogFiles int) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %v", err)
	}
	rotate, err := rotator.New(logFile, int64(maxLogFileSize*1024), false, maxLogFiles)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %v", err)
	}
	r.logWriter.logRotator = rotate
	return nil
}

// Close closes the underlying log rotator, if initialized.
func (r *RotatingLogWriter) Close() error {
	if r.logWriter.logRotator != nil {
		return r.logWriter.logRotator.Close()
	}
	return nil
}

// RegisterSubLogger makes a subsystem logger known to the registry.
func (r *RotatingLogWriter) RegisterSubLogger(subsystem string, logger slog.Logger) {
	r.subsystemLoggers[subsystem] = logger
}

// SupportedSubsystems returns the sorted registered subsystem tags.
func (r *RotatingLogWriter) SupportedSubsystems() []string {
	subsystems := make([]string, 0, len(r.subsystemLoggers))
	for subsystem := range r.subsystemLoggers {
		subsystems = append(subsystems, subsystem)
	}
	sort.Strings(subsystems)
	return subsystems
}

// SetLogLevel sets the level of one registered subsystem.
func (r *RotatingLogWriter) SetLogLevel(subsystem, level string) {
	logger, ok := r.subsystemLoggers[subsystem]
	if !ok {
		return
	}
	logLevel, _ := slog.LevelFromString(level)
	logger.SetLevel(logLevel)
}

// SetLogLevels sets the level of every registered subsystem.
func (r *RotatingLogWriter) SetLogLevels(level string) {
	for subsystem := range r.subsystemLoggers {
		r.SetLogLevel(subsystem, level)
	}
}

// ValidLogLevel reports whether the string names a valid slog level.
func ValidLogLevel(level string) bool {
	_, ok := slog.LevelFromString(strings.ToLower(level))
	return ok
}

// NewSubLogger creates a subsystem logger, falling back to a disabled one
// until the root writer is ready.
func NewSubLogger(subsystem string, gen func(string) slog.Logger) slog.Logger {
	if gen != nil {
		return gen(subsystem)
	}
	return slog.Disabled
}

// Ensure the interfaces hold.
var _ io.Writer = (*LogWriter)(nil)
