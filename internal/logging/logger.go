// Package logging configures the structured logger shared by the server.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents logging levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewLogger creates and configures a new structured logger writing to stdout
func NewLogger(level LogLevel, format string) *logrus.Logger {
	return newLogger(os.Stdout, level, format)
}

func newLogger(out io.Writer, level LogLevel, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(format, FormatText) {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	logger.SetLevel(ParseLevel(level))
	return logger
}

// ParseLevel converts a configured level to logrus.Level, defaulting to info
func ParseLevel(level LogLevel) logrus.Level {
	switch LogLevel(strings.ToLower(string(level))) {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelInfo:
		return logrus.InfoLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ValidLevel reports whether level is one NewLogger understands
func ValidLevel(level string) bool {
	switch LogLevel(strings.ToLower(level)) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// LogStartup logs service startup information
func LogStartup(logger *logrus.Logger, environment, port string, sources []string) {
	logger.WithFields(logrus.Fields{
		"event":       "startup",
		"environment": environment,
		"port":        port,
		"sources":     sources,
	}).Info("PantryLens resolver starting")
}

// LogWithRequestID returns a logger with request ID field
func LogWithRequestID(logger *logrus.Logger, requestID string) *logrus.Entry {
	return logger.WithField("request_id", requestID)
}

type requestIDKey struct{}

// ContextWithRequestID stores a request ID for loggers further down the call chain
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID stored in ctx, if any
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns an entry tagged with the request ID carried by ctx
func FromContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	if id := RequestIDFromContext(ctx); id != "" {
		return LogWithRequestID(logger, id)
	}
	return logrus.NewEntry(logger)
}
