package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Log levels, identical to the slog levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Type aliases so callers do not need to import log/slog.
type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

// LoggerKey is the attribute under which GetLogger records the logger name.
const LoggerKey = "logger"

//nolint:gochecknoglobals
var levelNames = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every record as "app"
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level ("debug", "info", "warn", "error")
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides the level per logger name ("repo.user:debug,svc:warn")
	Filter string `env:"FILTER" default:""`

	// JSON switches from the console format to JSON lines
	JSON bool `env:"JSON" default:"false"`

	// OutputHandle, if set, takes precedence over Output
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	current   LoggerConfig
	currentMu sync.Mutex
)

// Configure installs the process-wide logging configuration.
// Loggers obtained before the call keep their previous configuration.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	if err := configure(cfg, appName); err != nil {
		panic(err)
	}

	GetLogger("infra.logging").DebugContext(ctx, "logging configured", Group("config",
		"app", appName,
		"output", cfg.Output,
		"level", cfg.Level,
		"filter", cfg.Filter,
		"json", cfg.JSON,
	))
}

func configure(cfg LoggerConfig, appName string) error {
	currentMu.Lock()
	defer currentMu.Unlock()

	cfg.AppName = appName

	if cfg.OutputHandle == nil {
		out, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}

		cfg.OutputHandle = out
	}

	current = cfg

	slog.SetLogLoggerLevel(ParseLevel(cfg.Level, LevelInfo))

	return nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "discard":
		return io.Discard, nil
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

func snapshot() LoggerConfig {
	currentMu.Lock()
	defer currentMu.Unlock()

	return current
}

// GetLogger returns a logger tagged with name. Without a prior Configure
// call, or with output "discard", it returns a no-op logger.
func GetLogger(name string) Logger {
	cfg := snapshot()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level, LevelInfo))

	var handler Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		})
	} else {
		handler = NewConsoleHandler(cfg.OutputHandle, level, ParseFilter(cfg.Filter))
	}

	logger := slog.New(NewTracingHandler(handler))

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With(LoggerKey, name)
}

// GetLogLogger adapts logger to a *log.Logger for APIs such as http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// ParseFilter parses a "name:level,name:level" filter string.
// Malformed entries are ignored, unknown levels fall back to debug.
func ParseFilter(filter string) map[string]Level {
	levels := make(map[string]Level)

	for _, entry := range strings.Split(filter, ",") {
		name, level, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}

		levels[strings.TrimSpace(name)] = ParseLevel(level, LevelDebug)
	}

	return levels
}

// ParseLevel parses a level name case-insensitively, returning fallback
// for unknown names.
func ParseLevel(name string, fallback Level) Level {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return fallback
	}

	return level
}
