package logger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config controls logger initialization.
// Level accepts debug/info/warn/error; Environment selects the handler
// format (JSON for prod, text otherwise). WithSource adds source positions.
type Config struct {
	Level       string
	Environment string
	WithSource  bool
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

// New creates a logger from cfg without touching the global instance.
func New(cfg Config) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	var handler slog.Handler
	if strings.ToLower(cfg.Environment) == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	return slog.New(handler), nil
}

// Init initializes the global logger. Repeated calls return the logger
// created by the first call.
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
	})
	return global, initErr
}

// L returns the initialized global logger and panics if Init was never called.
func L() *slog.Logger {
	if global == nil {
		panic("logger.Init must be called before logger.L")
	}
	return global
}

// LogStage writes one structured record for a pipeline stage event.
// stage: persist/preprocess/queue/transcribe/diarize/merge
// action: start/success/error/skip
func LogStage(logger *slog.Logger, stage, action string, jobID int64, durationMs int64, errMsg string) {
	attrs := []slog.Attr{
		slog.String("stage", stage),
		slog.String("action", action),
		slog.Int64("job_id", jobID),
		slog.Int64("duration_ms", durationMs),
	}

	if errMsg != "" {
		attrs = append(attrs, slog.String("error", errMsg))
		logger.LogAttrs(context.Background(), slog.LevelError, "pipeline stage error", attrs...)
	} else {
		logger.LogAttrs(context.Background(), slog.LevelInfo, "pipeline stage event", attrs...)
	}
}
