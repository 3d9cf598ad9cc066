package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// SetupLogging configures logging to both stderr and a timestamped file in logDir.
// Returns the log file handle (caller should close it with defer)
func SetupLogging(logDir, format, level string) (*os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	logFilename := filepath.Join(logDir, fmt.Sprintf("quickresume_%s.log", timestamp))

	logFile, err := os.OpenFile(logFilename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	Init(format, level, io.MultiWriter(os.Stderr, logFile))

	L("logging").Info("logging initialized", "file", logFilename)

	return logFile, nil
}

// CleanupOldLogs removes .log files in logDir older than maxAge and reports how many were removed
func CleanupOldLogs(logDir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	log := L("logging")
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".log" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			fullPath := filepath.Join(logDir, entry.Name())
			if err := os.Remove(fullPath); err != nil {
				log.Warn("failed to remove old log file", "file", fullPath, KeyError, err)
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		log.Info("removed old log files", "count", removed, "maxAge", maxAge)
	}

	return removed, nil
}
