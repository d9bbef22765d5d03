package utils

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging installs the default slog logger. Logs always go to stdout and,
// if a file is given, also to a rotating log file next to it.
func SetupLogging(level slog.Leveler, logFile string) *slog.Logger {
	var out io.Writer = os.Stdout
	if logFile != "" {
		_ = os.MkdirAll(filepath.Dir(logFile), 0o750)
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
