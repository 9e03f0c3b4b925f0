package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// LogFilePath returns the path to the backend log file.
func LogFilePath() string {
	return filepath.Join("logs", "fund-plan.log")
}

// InitLogging builds the application logger. Output goes to stdout and, when
// it can be opened, to the log file. The standard library logger is pointed
// at the same sink so gin and third-party prints end up in one place.
func InitLogging(level string) (*os.File, zerolog.Logger) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	logFile := openLogFile()
	if logFile != nil {
		out = io.MultiWriter(os.Stdout, logFile)
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	log.SetFlags(0)
	log.SetOutput(logger)
	return logFile, logger
}

func openLogFile() *os.File {
	logPath := filepath.Dir(LogFilePath())
	if err := os.MkdirAll(logPath, os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
		return nil
	}

	logFile, err := os.OpenFile(LogFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		return nil
	}
	return logFile
}
