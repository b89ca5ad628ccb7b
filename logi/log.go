package logi

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Config holds the logging configuration
type Config struct {
	// LogDir is the directory where log files will be stored
	// Default: /var/log/dashboard-feed (or ./logs if not writable)
	LogDir string
	// LogFileName is the name of the log file
	// Default: app.log
	LogFileName string
	// Stdout writes to standard output instead of a file
	Stdout bool
	// Level is the minimum log level to write
	// Default: slog.LevelInfo
	Level slog.Level
}

// NewLog creates or returns the singleton logger instance.
// It's safe for concurrent use across multiple goroutines.
// Only the first call's configuration takes effect.
func NewLog(cfg *Config) (*slog.Logger, error) {
	var initErr error

	once.Do(func() {
		if cfg == nil {
			cfg = &Config{}
		}

		var out io.Writer
		var logPath string
		if cfg.Stdout {
			out = os.Stdout
			logPath = "stdout"
		} else {
			file, path, err := openLogFile(cfg)
			if err != nil {
				initErr = err
				return
			}
			out = file
			logPath = path
		}

		opts := &slog.HandlerOptions{
			Level: cfg.Level,
			// Remove source info for max performance
			AddSource: false,
		}

		logger = slog.New(slog.NewJSONHandler(out, opts))

		logger.Info("logger initialized",
			"log_path", logPath,
			"min_level", cfg.Level.String(),
		)
	})

	if initErr != nil {
		return nil, initErr
	}

	return logger, nil
}

// GetLogger returns the existing logger instance.
// Panics if NewLog hasn't been called yet - call NewLog once at startup.
func GetLogger() *slog.Logger {
	if logger == nil {
		panic("logger not initialized - call NewLog first")
	}
	return logger
}

// ParseLevel maps debug, info, warn and error (any case) to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func openLogFile(cfg *Config) (*os.File, string, error) {
	if cfg.LogDir == "" {
		// Try /var/log/dashboard-feed first (works in Docker)
		// Fall back to ./logs if not writable
		cfg.LogDir = "/var/log/dashboard-feed"
		if !isDirWritable(cfg.LogDir) {
			cfg.LogDir = "./logs"
		}
	}

	if cfg.LogFileName == "" {
		cfg.LogFileName = "app.log"
	}

	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory %s: %w", cfg.LogDir, err)
	}

	logPath := filepath.Join(cfg.LogDir, cfg.LogFileName)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	return file, logPath, nil
}

// isDirWritable checks if a directory is writable
func isDirWritable(path string) bool {
	if err := os.MkdirAll(path, 0755); err != nil {
		return false
	}

	testFile := filepath.Join(path, ".write_test")
	file, err := os.OpenFile(testFile, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false
	}
	file.Close()
	os.Remove(testFile)
	return true
}
