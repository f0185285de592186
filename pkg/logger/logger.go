package logger

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Fields is the structured payload attached to a log line.
type Fields = map[string]interface{}

// Logger wraps zerolog.Logger with additional context
type Logger struct {
	logger zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, console
	Output      io.Writer
	EnableColor bool
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

type ctxKey struct{}

// ConfigForEnvironment returns the logger configuration used by the binaries:
// JSON at info level in production, colored console output at debug level elsewhere.
func ConfigForEnvironment(environment string) Config {
	if environment == "production" {
		return Config{Level: "info", Format: "json"}
	}
	return Config{Level: "debug", Format: "console", EnableColor: true}
}

// Initialize initializes the global logger with the given configuration
func Initialize(cfg Config) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.Level))

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.EnableColor,
		}
	}

	l := zerolog.New(output).With().Timestamp().Logger()

	globalMu.Lock()
	globalLogger = &Logger{logger: l}
	globalMu.Unlock()
	log.Logger = l
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the global logger instance
func Get() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	Initialize(Config{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
	})
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewContext stores l in ctx so code below the HTTP layer logs with request fields.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by NewContext, or the global logger.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	return Get()
}

// WithContext returns a logger with additional context fields
func (l *Logger) WithContext(fields Fields) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// emit attaches the caller two frames up and the first field map.
func emit(event *zerolog.Event, msg string, fields []Fields) {
	if event == nil {
		return
	}
	pc, file, line, _ := runtime.Caller(2)
	event = event.Str("caller", zerolog.CallerMarshalFunc(pc, file, line))
	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	emit(l.logger.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	emit(l.logger.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	emit(l.logger.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, err error, fields ...Fields) {
	emit(l.logger.Error().Err(err), msg, fields)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, err error, fields ...Fields) {
	emit(l.logger.Fatal().Err(err), msg, fields)
}

// Package-level convenience functions

func Debug(msg string, fields ...Fields) {
	emit(Get().logger.Debug(), msg, fields)
}

func Info(msg string, fields ...Fields) {
	emit(Get().logger.Info(), msg, fields)
}

func Warn(msg string, fields ...Fields) {
	emit(Get().logger.Warn(), msg, fields)
}

func Error(msg string, err error, fields ...Fields) {
	emit(Get().logger.Error().Err(err), msg, fields)
}

func Fatal(msg string, err error, fields ...Fields) {
	emit(Get().logger.Fatal().Err(err), msg, fields)
}

// WithContext returns a logger with additional context fields
func WithContext(fields Fields) *Logger {
	return Get().WithContext(fields)
}
