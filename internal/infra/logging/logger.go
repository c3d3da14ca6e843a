package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

var ErrInvalidLevel = errors.New("invalid log level")

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// AppName is added to every entry as "app"
	AppName string

	// Output is "stdout", "stderr", "discard" or a file path
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is one of "debug", "info", "warn", "error"
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides levels per logger name: "repo:debug,svc.todosvc:warn"
	Filter string `env:"FILTER" default:""`

	JSON bool `env:"JSON" default:"false"`

	// OutputHandle takes precedence over Output when set
	OutputHandle io.Writer
}

//nolint:gochecknoglobals
var (
	Group = slog.Group

	state = struct {
		sync.Mutex
		cfg       LoggerConfig
		level     slog.LevelVar
		pkgLevels map[string]Level
	}{}

	// outputLock serializes console writes across all loggers.
	outputLock sync.Mutex
)

// Configure sets the process-wide logging configuration. Loggers obtained
// afterwards use it; existing loggers keep their output but follow the new
// level.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	pkgLevels, err := parseFilter(cfg.Filter)
	if err != nil {
		return err
	}

	if cfg.OutputHandle == nil {
		if cfg.OutputHandle, err = openOutput(cfg.Output); err != nil {
			return err
		}
	}

	cfg.AppName = appName

	state.Lock()
	state.cfg = cfg
	state.pkgLevels = pkgLevels
	state.level.Set(level)
	state.Unlock()

	slog.SetLogLoggerLevel(level)

	GetLogger("infra.logging").DebugContext(ctx, "logging configured", Group("config",
		"app", appName,
		"output", cfg.Output,
		"level", level.String(),
		"filter", cfg.Filter,
		"json", cfg.JSON,
	))

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

	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return file, nil
}

// GetLogger returns a logger tagged with name. Dotted names form a hierarchy
// the Filter setting can address at any depth.
func GetLogger(name string) Logger {
	state.Lock()
	cfg, pkgLevels := state.cfg, state.pkgLevels
	state.Unlock()

	if cfg.OutputHandle == nil || cfg.OutputHandle == io.Discard {
		return NewNopLogger()
	}

	var handler Handler

	if cfg.JSON {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(cfg.OutputHandle, &slog.HandlerOptions{
			AddSource: true,
			Level:     &state.level,
		})
	} else {
		//nolint:exhaustruct
		handler = &ConsoleHandler{
			Output:    cfg.OutputHandle,
			Level:     &state.level,
			PkgLevels: pkgLevels,
			mu:        &outputLock,
		}
	}

	logger := slog.New(NewTracingHandler(handler))

	if cfg.AppName != "" {
		logger = logger.With("app", cfg.AppName)
	}

	return logger.With("logger", name)
}

// GetLogLogger adapts logger for APIs that want a *log.Logger, such as
// http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel reads a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

func parseFilter(filter string) (map[string]Level, error) {
	levels := make(map[string]Level)

	for _, entry := range strings.Split(filter, ",") {
		name, levelStr, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" {
			continue
		}

		level, err := ParseLevel(levelStr)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}

		levels[name] = level
	}

	return levels, nil
}
