package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/PrecedenceMarkets/lexgate/internal/pkg/apperrors"
)

var (
	globalLogger *slog.Logger
	once         sync.Once
)

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setup(w io.Writer, level string) {
	// JSON handler for structured logs in production
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// Init sets up the global logger once; later calls are no-ops.
func Init(level string) {
	once.Do(func() {
		setup(os.Stdout, level)
	})
}

// Redirect points the global logger at w. Test hook.
func Redirect(w io.Writer, level string) {
	setup(w, level)
}

// Get returns the global logger instance
func Get() *slog.Logger {
	if globalLogger == nil {
		Init("info")
	}
	return globalLogger
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func With(args ...any) *slog.Logger {
	return Get().With(args...)
}

// LogError logs err at error level. Errors from the apperrors taxonomy
// carry their code and root cause into the record.
func LogError(ctx context.Context, err error, msg string, args ...any) {
	if err == nil {
		return
	}
	args = append(args, slog.String("error", err.Error()))

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		args = append(args, slog.String("code", string(appErr.Type)))
		if appErr.Cause != nil {
			args = append(args, slog.String("cause", appErr.Cause.Error()))
		}
	}
	Get().ErrorContext(ctx, msg, args...)
}
