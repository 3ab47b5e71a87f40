// Package logging writes structured logs to a file. The TUI owns the
// terminal, so nothing here may touch stdout or stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

var logger = log.New(io.Discard)

var logFile *os.File

// Init opens the log file under the XDG state dir and routes the package
// logger to it. Safe to skip; logging stays discarded on error.
func Init() error {
	dir := filepath.Join(xdg.StateHome, "worldstatus")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, "worldstatus.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logFile = f

	logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
	})
	return nil
}

func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = log.New(io.Discard)
}

func Debug(msg string, kv ...any) { logger.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { logger.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { logger.Warn(msg, kv...) }
func Error(msg string, kv ...any) { logger.Error(msg, kv...) }
