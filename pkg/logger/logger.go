package logger

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Init configures the process logger. development gets human readable text at
// debug level, every other environment gets JSON at info level.
func Init(environment string) {
	var handler slog.Handler
	if environment == "development" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	l := slog.New(handler)
	current.Store(l)
	slog.SetDefault(l)
}

func Get() *slog.Logger {
	return current.Load()
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, normalize(args)...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, normalize(args)...)
}

// Fatal logs at error level and exits the process.
func Fatal(msg string, args ...any) {
	Get().Error(msg, normalize(args)...)
	os.Exit(1)
}

// normalize lets call sites pass a bare error: logger.Error("msg", err).
func normalize(args []any) []any {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			return []any{slog.Any("error", err)}
		}
	}
	return args
}
