package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/bricola/authcore"
	"github.com/bricola/authcore/httpapi"
	"github.com/bricola/authcore/notify"
	"github.com/bricola/authcore/store/redisstore"
)

// logWriter writes to standard output and, once initialized, to the log
// rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator == nil {
		return len(p), nil
	}
	return logRotator.Write(p)
}

var (
	backendLog = slog.NewBackend(logWriter{})

	// logRotator is nil when LOG_FILE is unset.
	logRotator *rotator.Rotator

	log      = backendLog.Logger("AUTH")
	engLog   = backendLog.Logger("ENGN")
	httpLog  = backendLog.Logger("HTTP")
	mailLog  = backendLog.Logger("MAIL")
	redisLog = backendLog.Logger("RDIS")
)

func init() {
	authcore.UseLogger(engLog)
	httpapi.UseLogger(httpLog)
	notify.UseLogger(mailLog)
	redisstore.UseLogger(redisLog)
}

var subsystemLoggers = map[string]slog.Logger{
	"AUTH": log,
	"ENGN": engLog,
	"HTTP": httpLog,
	"MAIL": mailLog,
	"RDIS": redisLog,
}

// initLogRotator starts writing logs to logFile, rolling files in the same
// directory.
func initLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	logRotator = r
	return nil
}

// setLogLevels sets every subsystem to logLevel. Invalid levels fall back to
// info.
func setLogLevels(logLevel string) {
	level, ok := slog.LevelFromString(logLevel)
	if !ok {
		level = slog.LevelInfo
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}
