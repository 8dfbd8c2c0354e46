package logger

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance. Starts as a nop so packages can log
	// before Init, e.g. in tests.
	global = zap.NewNop().Sugar()
	// Whether detailed (debug) logging is enabled
	detailed bool
)

// Config holds logging configuration
type Config struct {
	Level    string // DEBUG, INFO, WARN, ERROR
	Format   string // json or console
	Detailed bool   // Enable debug logs
}

// Init initializes the global logger based on environment variables
func Init() error {
	return InitWithConfig(ConfigFromEnv())
}

// ConfigFromEnv loads logging configuration from environment variables
func ConfigFromEnv() Config {
	return Config{
		Level:    getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:   getEnvOrDefault("LOG_FORMAT", "json"),
		Detailed: getEnvOrDefault("LOG_DETAILED", "false") == "true",
	}
}

// InitWithConfig initializes the global logger with specific configuration
func InitWithConfig(config Config) error {
	detailed = config.Detailed

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), parseLevel(config.Level))
	// Skip the package-level wrapper frame so the caller location is right
	base := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	global = base.Sugar()
	zap.ReplaceGlobals(base)

	return nil
}

// Sync flushes any buffered log entries
func Sync() {
	_ = global.Sync()
}

// parseLevel converts a string log level to a zap level
func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getTraceFields extracts trace ID and span ID from context for logging
func getTraceFields(ctx context.Context) []any {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return []any{
		"trace_id", span.SpanContext().TraceID().String(),
		"span_id", span.SpanContext().SpanID().String(),
	}
}

func withTrace(ctx context.Context, args []any) []any {
	if traceFields := getTraceFields(ctx); traceFields != nil {
		return append(traceFields, args...)
	}
	return args
}

// skipped returns a logger reporting the caller `skip` extra frames up.
// The obs wrappers use it so log lines point at their callers.
func skipped(skip int) *zap.SugaredLogger {
	if skip <= 0 {
		return global
	}
	return global.Desugar().WithOptions(zap.AddCallerSkip(skip)).Sugar()
}

// Debug logs a debug message
func Debug(ctx context.Context, msg string, args ...any) {
	if !detailed {
		return
	}
	global.Debugw(msg, withTrace(ctx, args)...)
}

// Info logs an info message
func Info(ctx context.Context, msg string, args ...any) {
	global.Infow(msg, withTrace(ctx, args)...)
}

// Warn logs a warning message
func Warn(ctx context.Context, msg string, args ...any) {
	global.Warnw(msg, withTrace(ctx, args)...)
}

// Error logs an error message
func Error(ctx context.Context, msg string, args ...any) {
	global.Errorw(msg, withTrace(ctx, args)...)
}

// ErrorWithErr logs an error message with an error object and records
// the error on the active span if there is one
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	allArgs := append([]any{"error", err}, args...)
	global.Errorw(msg, withTrace(ctx, allArgs)...)
}

// DebugSkip is Debug with extra caller frames skipped
func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	if !detailed {
		return
	}
	skipped(skip).Debugw(msg, withTrace(ctx, args)...)
}

// InfoSkip is Info with extra caller frames skipped
func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	skipped(skip).Infow(msg, withTrace(ctx, args)...)
}

// WarnSkip is Warn with extra caller frames skipped
func WarnSkip(ctx context.Context, skip int, msg string, args ...any) {
	skipped(skip).Warnw(msg, withTrace(ctx, args)...)
}

// ErrorWithErrSkip is ErrorWithErr with extra caller frames skipped
func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	recordSpanError(ctx, err)
	allArgs := append([]any{"error", err}, args...)
	skipped(skip).Errorw(msg, withTrace(ctx, allArgs)...)
}

func recordSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Delivery logs a digest delivery (always logged regardless of level)
func Delivery(ctx context.Context, channel, messageID string, entries int, args ...any) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		span.AddEvent("digest_delivered", trace.WithAttributes(
			attribute.String("channel", channel),
			attribute.String("message_id", messageID),
			attribute.Int("entries", entries),
		))
	}

	allArgs := append([]any{
		"type", "DELIVERY",
		"channel", channel,
		"message_id", messageID,
		"entries", entries,
	}, args...)
	global.Infow("Digest delivered", withTrace(ctx, allArgs)...)
}

// IsDebugEnabled returns whether debug logging is enabled
func IsDebugEnabled() bool {
	return detailed
}
